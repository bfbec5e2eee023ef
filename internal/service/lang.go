package service

import (
	"path/filepath"
	"strings"
)

var allowedUploadExts = map[string]struct{}{
	"js": {}, "ts": {}, "tsx": {}, "jsx": {}, "py": {}, "java": {}, "rs": {}, "cpp": {}, "c": {},
	"go": {}, "txt": {}, "md": {}, "json": {}, "xml": {}, "html": {}, "css": {}, "sql": {},
	"sh": {}, "bat": {}, "yml": {}, "yaml": {},
}

// languageRule order matters: the first matching marker decides the extension.
var languageRules = []struct {
	markers []string
	ext     string
}{
	{markers: []string{"import React", "JSX"}, ext: "tsx"},
	{markers: []string{"public static void main"}, ext: "java"},
	{markers: []string{"fn main()"}, ext: "rs"},
	{markers: []string{"def "}, ext: "py"},
	{markers: []string{"#include"}, ext: "cpp"},
	{markers: []string{"package main"}, ext: "go"},
}

func InferLanguage(code string) string {
	for _, rule := range languageRules {
		for _, marker := range rule.markers {
			if strings.Contains(code, marker) {
				return rule.ext
			}
		}
	}
	return "txt"
}

// ParseTags splits a dot-delimited tag string. The result may be empty.
func ParseTags(raw string) []string {
	parts := strings.Split(raw, ".")
	tags := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		tags = append(tags, part)
	}
	return tags
}

func textFileName(title, ext string) string {
	var b strings.Builder
	for _, r := range title {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			continue
		}
		b.WriteByte('_')
	}
	return b.String() + "." + ext
}

func fileExt(name string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
}

func isAllowedUpload(name string) bool {
	_, ok := allowedUploadExts[fileExt(name)]
	return ok
}
