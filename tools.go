//go:build tools

package tools

import (
	_ "github.com/fpawel/gotools/cmd/sqlstr"
)
