//go:build !windows

package grammar

/*
#cgo linux LDFLAGS: -ldl
#include <dlfcn.h>
#include <stdlib.h>

typedef const void *(*ts_language_fn)(void);

const void* load_ts_lang(const char* path, const char* name) {
    void* handle = dlopen(path, RTLD_LAZY);
    if (!handle) return NULL;
    void* sym = dlsym(handle, name);
    if (!sym) {
        dlclose(handle);
        return NULL;
    }
    return ((ts_language_fn)sym)();
}
*/
import "C"
import (
	"fmt"
	"unsafe"
)

// LoadDynamic opens the shared object at path and calls its grammar factory
// symbol, returning the raw TSLanguage pointer.
func LoadDynamic(path, symbol string) (unsafe.Pointer, error) {
	cPath := C.CString(path)
	cSymbol := C.CString(symbol)
	defer C.free(unsafe.Pointer(cPath))
	defer C.free(unsafe.Pointer(cSymbol))

	ptr := C.load_ts_lang(cPath, cSymbol)
	if ptr == nil {
		return nil, fmt.Errorf("failed to load %s from %s", symbol, path)
	}
	return unsafe.Pointer(ptr), nil
}
