// Package lsp serves compiler diagnostics over the Language Server
// Protocol, grounded on the teacher's KansoHandler (glsp wiring,
// content/AST cache keyed by file path, URI<->path helpers) but
// generalized from a Kanso-source AST cache to a cache of this
// module's own diag.Handler: every open/changed document is run
// through the same driver.Compile pipeline cmd/plierc drives, and
// whatever diag.Diagnostic values come back are republished as LSP
// diagnostics. Semantic tokens are dropped and completion always
// answers with an empty list — this module's front end has no notion
// of a "Kanso keyword" to highlight,
// and nothing downstream of diag.Handler carries token-range
// classification (DESIGN.md).
package lsp

import (
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"github.com/tliron/glsp"
	protocol "github.com/tliron/glsp/protocol_3_16"

	"plierc/internal/dialect/arith"
	"plierc/internal/dialect/fn"
	"plierc/internal/dialect/gpu"
	"plierc/internal/dialect/memref"
	"plierc/internal/dialect/plier"
	"plierc/internal/dialect/scf"
	"plierc/internal/dialect/spirvlike"
	"plierc/internal/diag"
	"plierc/internal/driver"
	"plierc/internal/frontend"
	"plierc/internal/ir"
	"plierc/internal/lowering/plierstd"
	"plierc/internal/stdlib"
)

// Handler implements the LSP server handlers for the reference front
// end's source language.
type Handler struct {
	mu      sync.RWMutex
	content map[string]string
}

// NewHandler creates and returns a new Handler instance.
func NewHandler() *Handler {
	return &Handler{content: make(map[string]string)}
}

func newCompileContext() *ir.Context {
	ctx := ir.NewContext()
	arith.Register(ctx)
	fn.Register(ctx)
	scf.Register(ctx)
	plier.Register(ctx)
	memref.Register(ctx)
	gpu.Register(ctx)
	spirvlike.Register(ctx)
	plierstd.Register(ctx)
	return ctx
}

// Initialize responds to the LSP client's initialize request and
// advertises the server's capabilities.
func (h *Handler) Initialize(ctx *glsp.Context, params *protocol.InitializeParams) (any, error) {
	log.Println("LSP Initialize called")

	return &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: &protocol.TextDocumentSyncOptions{
				OpenClose: ptrBool(true),
				Change:    ptrSyncKind(protocol.TextDocumentSyncKindFull),
			},
		},
	}, nil
}

// Initialized is called after the client receives the server's
// capabilities and completes initialization.
func (h *Handler) Initialized(ctx *glsp.Context, params *protocol.InitializedParams) error {
	log.Println("LSP Initialized")
	return nil
}

// Shutdown handles the LSP shutdown request.
func (h *Handler) Shutdown(ctx *glsp.Context) error {
	log.Println("LSP Shutdown")
	return nil
}

// TextDocumentDidOpen handles file open notifications from the editor.
func (h *Handler) TextDocumentDidOpen(ctx *glsp.Context, params *protocol.DidOpenTextDocumentParams) error {
	log.Printf("Opened file: %s\n", params.TextDocument.URI)
	return h.recompileAndPublish(ctx, params.TextDocument.URI)
}

// TextDocumentDidChange handles file change notifications from the
// editor.
func (h *Handler) TextDocumentDidChange(ctx *glsp.Context, params *protocol.DidChangeTextDocumentParams) error {
	log.Printf("Changed file: %s\n", params.TextDocument.URI)
	return h.recompileAndPublish(ctx, params.TextDocument.URI)
}

// TextDocumentDidClose handles file close notifications from the
// editor.
func (h *Handler) TextDocumentDidClose(ctx *glsp.Context, params *protocol.DidCloseTextDocumentParams) error {
	log.Printf("Closed file: %s\n", params.TextDocument.URI)

	path, err := uriToPath(params.TextDocument.URI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", params.TextDocument.URI, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.content, path)
	return nil
}

// TextDocumentCompletion handles completion requests. This front end
// has no symbol table a completion provider could usefully query yet,
// so it always returns an empty list.
func (h *Handler) TextDocumentCompletion(ctx *glsp.Context, params *protocol.CompletionParams) (any, error) {
	return &protocol.CompletionList{IsIncomplete: false, Items: []protocol.CompletionItem{}}, nil
}

func (h *Handler) recompileAndPublish(ctx *glsp.Context, rawURI protocol.DocumentUri) error {
	path, err := uriToPath(rawURI)
	if err != nil {
		return fmt.Errorf("failed to convert URI %s: %w", rawURI, err)
	}

	source, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", path, err)
	}

	h.mu.Lock()
	h.content[path] = string(source)
	h.mu.Unlock()

	handler := h.compile(path, string(source))
	sendDiagnosticNotification(ctx, rawURI, convertDiagnostics(path, string(source), handler))
	return nil
}

// compile runs source through the same pipeline cmd/plierc drives,
// returning whatever diag.Handler it accumulated. A nil loader/emitter
// is fine here: the LSP only ever reads diagnostics back out, it never
// needs the compiled object.
func (h *Handler) compile(path, source string) *diag.Handler {
	compileCtx := newCompileContext()
	library := stdlib.NewMathLibrary().Resolver()
	_, diagHandler, err := driver.Compile(compileCtx, driver.DefaultConfig(), frontend.Ingester{}, source, "main",
		driver.Resolvers{Library: library}, nil, nil)
	if err != nil && diagHandler == nil {
		diagHandler = diag.NewHandler()
		diagHandler.Report(diag.Diagnostic{
			Level:   diag.LevelError,
			Message: err.Error(),
		})
	}
	return diagHandler
}

func convertDiagnostics(path, source string, handler *diag.Handler) []protocol.Diagnostic {
	if handler == nil {
		return nil
	}
	diagnostics := make([]protocol.Diagnostic, 0, len(handler.Diagnostics()))
	for _, d := range handler.Diagnostics() {
		line := d.Loc.Line - 1
		if line < 0 {
			line = 0
		}
		col := d.Loc.Column - 1
		if col < 0 {
			col = 0
		}
		length := d.Length
		if length <= 0 {
			length = 1
		}
		diagnostics = append(diagnostics, protocol.Diagnostic{
			Range: protocol.Range{
				Start: protocol.Position{Line: uint32(line), Character: uint32(col)},
				End:   protocol.Position{Line: uint32(line), Character: uint32(col + length)},
			},
			Severity: ptrSeverity(severityFor(d.Level)),
			Source:   ptrString("plierc"),
			Message:  diagnosticMessage(d),
		})
	}
	return diagnostics
}

func diagnosticMessage(d diag.Diagnostic) string {
	if d.Code == "" {
		return d.Message
	}
	return fmt.Sprintf("[%s] %s", d.Code, d.Message)
}

func severityFor(level diag.Level) protocol.DiagnosticSeverity {
	switch level {
	case diag.LevelWarning:
		return protocol.DiagnosticSeverityWarning
	case diag.LevelNote, diag.LevelHelp:
		return protocol.DiagnosticSeverityInformation
	default:
		return protocol.DiagnosticSeverityError
	}
}

// uriToPath converts URI to a platform-local file path.
func uriToPath(rawURI string) (string, error) {
	u, err := url.Parse(rawURI)
	if err != nil {
		return "", fmt.Errorf("invalid URI %s: %w", rawURI, err)
	}

	path := u.Path
	if runtime.GOOS == "windows" && strings.HasPrefix(path, "/") && len(path) > 3 && path[2] == ':' {
		path = path[1:]
	}
	return filepath.FromSlash(path), nil
}

func sendDiagnosticNotification(ctx *glsp.Context, uri protocol.URI, diagnostics []protocol.Diagnostic) {
	ctx.Notify(protocol.ServerTextDocumentPublishDiagnostics, &protocol.PublishDiagnosticsParams{
		URI:         uri,
		Diagnostics: diagnostics,
	})
}

func ptrBool(b bool) *bool                                       { return &b }
func ptrSyncKind(k protocol.TextDocumentSyncKind) *protocol.TextDocumentSyncKind { return &k }
func ptrSeverity(s protocol.DiagnosticSeverity) *protocol.DiagnosticSeverity     { return &s }
func ptrString(s string) *string                                 { return &s }
