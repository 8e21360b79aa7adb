//go:build windows

package grammar

import (
	"fmt"
	"unsafe"
)

// LoadDynamic returns an error on Windows as dynamic grammar loading is not yet supported.
func LoadDynamic(path, symbol string) (unsafe.Pointer, error) {
	return nil, fmt.Errorf("dynamic grammar loading is currently not supported on Windows")
}
