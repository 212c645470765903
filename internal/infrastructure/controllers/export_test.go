package controllers

import "io"

// ContentFormat exposes contentFormat for tests.
func ContentFormat(path string) string { return contentFormat(path) }

// ReadContent exposes readContent for tests.
func ReadContent(stdin io.Reader, path string) (map[string]any, error) { return readContent(stdin, path) }

// Truncate exposes truncate for tests.
func Truncate(value string, width int) string { return truncate(value, width) }
