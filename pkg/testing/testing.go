package testing

import (
	"os"
	"path"
	"runtime"
)

func init() {
	// tests chdir to the project root so logs/ and sqlite files land in one place
	//
	//   in some_test.go,
	//   import (
	//     _ "liyu1981.xyz/garden-telemetry-service/pkg/testing"
	//   )

	_, filename, _, _ := runtime.Caller(0)
	dir := path.Join(path.Dir(filename), "..", "..")
	if err := os.Chdir(dir); err != nil {
		panic(err)
	}
}
