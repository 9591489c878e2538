package lsp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	protocol "github.com/tliron/glsp/protocol_3_16"

	"plierc/internal/diag"
)

func TestCompileOfValidSourceReportsNoErrors(t *testing.T) {
	h := NewHandler()
	src := "def add(a, b):\n    return a + b\n"

	handler := h.compile("add.plr", src)
	require.NotNil(t, handler)
	assert.False(t, handler.HasErrors())
}

func TestCompileOfUnparseableSourceReportsAUserDiagnostic(t *testing.T) {
	h := NewHandler()
	src := "def f(a)\n    return a\n"

	handler := h.compile("f.plr", src)
	require.NotNil(t, handler)
	require.True(t, handler.HasErrors())
	assert.Equal(t, diag.CodeUserIngestionFailure, handler.Errors()[0].Code)
}

func TestConvertDiagnosticsTranslatesLevelsAndClampsRanges(t *testing.T) {
	handler := diag.NewHandler()
	handler.Report(diag.Diagnostic{
		Level:   diag.LevelError,
		Code:    diag.CodeUserIngestionFailure,
		Message: "parse failed",
	})
	handler.Report(diag.Diagnostic{
		Level:   diag.LevelWarning,
		Message: "looks off",
	})

	diagnostics := convertDiagnostics("f.plr", "source", handler)
	require.Len(t, diagnostics, 2)

	first := diagnostics[0]
	assert.Equal(t, protocol.DiagnosticSeverityError, *first.Severity)
	assert.Equal(t, "[E4001] parse failed", first.Message)
	assert.Equal(t, uint32(0), first.Range.Start.Line)
	assert.Equal(t, uint32(0), first.Range.Start.Character)

	second := diagnostics[1]
	assert.Equal(t, protocol.DiagnosticSeverityWarning, *second.Severity)
	assert.Equal(t, "looks off", second.Message)
}

func TestConvertDiagnosticsOfNilHandlerIsEmpty(t *testing.T) {
	assert.Nil(t, convertDiagnostics("f.plr", "source", nil))
}

func TestUriToPathRoundTripsAPlainFileURI(t *testing.T) {
	path, err := uriToPath("file:///home/user/module.plr")
	require.NoError(t, err)
	assert.Equal(t, "/home/user/module.plr", path)
}
