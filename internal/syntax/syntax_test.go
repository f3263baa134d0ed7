package syntax

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLanguageForFile(t *testing.T) {
	cases := map[string]Language{
		"main.go":          LangGo,
		"server.py":        LangPython,
		"app.js":           LangJavaScript,
		"widget.jsx":       LangJavaScript,
		"mod.mjs":          LangJavaScript,
		"index.ts":         LangTypeScript,
		"view.tsx":         LangTSX,
		"Main.java":        LangJava,
		"util.c":           LangC,
		"util.h":           LangC,
		"engine.cpp":       LangCPP,
		"engine.hpp":       LangCPP,
		"model.rb":         LangRuby,
		"lib.rs":           LangRust,
		"Program.cs":       LangCSharp,
		"App.kt":           LangKotlin,
		"build.gradle.kts": LangKotlin,
		"index.php":        LangPHP,
		"deploy.sh":        LangBash,
		"README.md":        LangUnknown,
		"Makefile":         LangUnknown,
	}
	for name, want := range cases {
		assert.Equal(t, want, LanguageForFile(name), "file %s", name)
	}
}

func TestLanguageForFileCaseInsensitive(t *testing.T) {
	assert.Equal(t, LangGo, LanguageForFile("MAIN.GO"))
	assert.Equal(t, LangPython, LanguageForFile("Script.PY"))
}

func TestSupported(t *testing.T) {
	assert.True(t, Supported("a/b/c.go"))
	assert.False(t, Supported("notes.txt"))
	assert.False(t, Supported("binary"))
}

func TestSupportedExtensionsSortedAndComplete(t *testing.T) {
	exts := SupportedExtensions()
	require.NotEmpty(t, exts)
	assert.Contains(t, exts, ".go")
	assert.Contains(t, exts, ".py")
	for i := 1; i < len(exts); i++ {
		assert.Less(t, exts[i-1], exts[i], "extensions must be sorted")
	}
}

func TestFormatFileGo(t *testing.T) {
	source := []byte(`package demo

import "fmt"

func Hello(name string) {
	fmt.Println("hello", name)
}

type Greeter struct {
	Prefix string
}
`)
	p := NewParser()
	formatted, err := p.FormatFile(context.Background(), source, LangGo)
	require.NoError(t, err)

	// package clause, import, func decl, type decl
	assert.Contains(t, formatted, "Node type: package_clause")
	assert.Contains(t, formatted, "Node type: function_declaration")
	assert.Contains(t, formatted, "Node type: type_declaration")
	assert.Contains(t, formatted, "func Hello(name string)")

	// Rows are zero-based: the func decl starts on line 4 of the source.
	assert.Contains(t, formatted, "---Start Line: 4---")

	starts := strings.Count(formatted, "---Start Line: ")
	ends := strings.Count(formatted, "---End Line: ")
	assert.Equal(t, starts, ends)
	assert.Equal(t, strings.Count(formatted, "Node type: "), starts)
}

func TestFormatFilePython(t *testing.T) {
	source := []byte("def add(a, b):\n    return a + b\n")
	p := NewParser()
	formatted, err := p.FormatFile(context.Background(), source, LangPython)
	require.NoError(t, err)
	assert.Contains(t, formatted, "Node type: function_definition")
	assert.Contains(t, formatted, "---Start Line: 0---")
	assert.Contains(t, formatted, "---End Line: 1---")
}

func TestFormatFileUnknownLanguage(t *testing.T) {
	p := NewParser()
	_, err := p.FormatFile(context.Background(), []byte("hello"), LangUnknown)
	require.Error(t, err)
}

func TestFormatFileEmptySource(t *testing.T) {
	p := NewParser()
	formatted, err := p.FormatFile(context.Background(), nil, LangGo)
	require.NoError(t, err)
	assert.Empty(t, formatted)
}
