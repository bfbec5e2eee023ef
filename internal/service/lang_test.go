package service

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInferLanguage(t *testing.T) {
	tests := []struct {
		name string
		code string
		want string
	}{
		{name: "react", code: "import React from 'react'", want: "tsx"},
		{name: "jsx marker", code: "// JSX component", want: "tsx"},
		{name: "java", code: "public static void main(String[] a) {}", want: "java"},
		{name: "rust", code: "fn main() {}", want: "rs"},
		{name: "python", code: "def f(): pass", want: "py"},
		{name: "cpp", code: "#include <stdio.h>", want: "cpp"},
		{name: "go", code: "package main\n\nfunc main() {}", want: "go"},
		{name: "plain", code: "hello world", want: "txt"},
		{name: "react wins over def", code: "import React\ndef x", want: "tsx"},
		{name: "python wins over go", code: "package main\ndef x", want: "py"},
		{name: "rust wins over include", code: "#include\nfn main()", want: "rs"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, InferLanguage(tt.code))
		})
	}
}

func TestParseTags(t *testing.T) {
	require.Equal(t, []string{"go", "web", "api"}, ParseTags("go. web..api ."))
	require.Equal(t, []string{"single"}, ParseTags("single"))
	require.Empty(t, ParseTags(" . . "))
}

func TestTextFileName(t *testing.T) {
	require.Equal(t, "Hello_World__v2_.py", textFileName("Hello World (v2)", "py"))
	require.Equal(t, "__.txt", textFileName("é!", "txt"))
}

func TestIsAllowedUpload(t *testing.T) {
	require.True(t, isAllowedUpload("main.GO"))
	require.True(t, isAllowedUpload("config.yaml"))
	require.False(t, isAllowedUpload("binary.exe"))
	require.False(t, isAllowedUpload("Makefile"))
}
