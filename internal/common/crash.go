package common

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"
)

// CrashLogDir is where crash reports are written
var CrashLogDir = "./logs"

// InstallCrashHandler sets the crash report directory and makes sure it exists.
// Call at the start of main, paired with defer RecoverWithCrashFile().
func InstallCrashHandler(logDir string) {
	if logDir != "" {
		CrashLogDir = logDir
	}
	if err := os.MkdirAll(CrashLogDir, 0755); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to create log directory: %v\n", err)
	}
}

// WriteCrashFile writes a crash report and returns its path, or "" when the
// file could not be written (the report then goes to stderr)
func WriteCrashFile(panicVal interface{}, stackTrace string) string {
	crashPath := filepath.Join(CrashLogDir, fmt.Sprintf("crash-%s.log", time.Now().Format("2006-01-02T15-04-05")))

	var report bytes.Buffer
	fmt.Fprintf(&report, "=== SITESCREEN CRASH REPORT ===\n")
	fmt.Fprintf(&report, "Time: %s\nVersion: %s\n\n", time.Now().Format(time.RFC3339), GetFullVersion())
	fmt.Fprintf(&report, "=== PANIC VALUE ===\n%v\n\n", panicVal)
	fmt.Fprintf(&report, "=== STACK TRACE ===\n%s\n", stackTrace)
	fmt.Fprintf(&report, "=== ALL GOROUTINES ===\n%s\n", allGoroutineStacks())

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)
	fmt.Fprintf(&report, "=== SYSTEM INFO ===\nNumGoroutine: %d\nGOOS: %s\nGOARCH: %s\nAlloc: %d MB\nSys: %d MB\n",
		runtime.NumGoroutine(), runtime.GOOS, runtime.GOARCH, memStats.Alloc/1024/1024, memStats.Sys/1024/1024)

	if err := os.WriteFile(crashPath, report.Bytes(), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "CRASH: Failed to write crash file: %v\n%s", err, report.String())
		return ""
	}

	fmt.Fprintf(os.Stderr, "\n!!! FATAL CRASH - Report saved to: %s !!!\nPanic: %v\n", crashPath, panicVal)
	return crashPath
}

func allGoroutineStacks() string {
	buf := make([]byte, 64*1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) || len(buf) >= 64*1024*1024 {
			return string(buf[:n])
		}
		buf = make([]byte, len(buf)*2)
	}
}

// StackTrace returns the current goroutine's stack trace
func StackTrace() string {
	buf := make([]byte, 8192)
	n := runtime.Stack(buf, false)
	return string(buf[:n])
}

// RecoverWithCrashFile is a deferred panic handler that writes a crash report and exits.
// Usage: defer common.RecoverWithCrashFile()
func RecoverWithCrashFile() {
	if r := recover(); r != nil {
		WriteCrashFile(r, StackTrace())
		os.Exit(1)
	}
}
