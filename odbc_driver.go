//go:build windows || cgo

package main

// The odbc driver only compiles on windows or with cgo (it links against
// unixODBC on unix), mirroring the build constraints of the library itself.
import _ "github.com/alexbrainman/odbc"
