// Package version хранит информацию о сборке, заполняемую через -ldflags.
package version

import "fmt"

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// GetVersion возвращает версию сборки.
func GetVersion() string { return version }

// String возвращает строку для стартового лога сервиса.
func String() string {
	return fmt.Sprintf("version=%s commit=%s date=%s", version, commit, date)
}
