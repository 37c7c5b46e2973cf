package main

import (
	_ "embed"
	"net/http"
)

//go:embed demo.html
var demoHTML []byte

func demoHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(demoHTML)
}
