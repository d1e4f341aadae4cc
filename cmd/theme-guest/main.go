//go:build wasip1

// theme-guest is the sandboxed theme module. Build it as a reactor:
//
//	GOOS=wasip1 GOARCH=wasm go build -buildmode=c-shared -o theme.wasm ./cmd/theme-guest
package main

import (
	_ "github.com/reglet-dev/theme-sdk/guest"
)

func main() {}
