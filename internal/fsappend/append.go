// Package fsappend provides the retry-with-backoff append primitive shared
// by the audit registry and the resume log. Appends contend with antivirus
// scanners and slow network shares, so transient open failures get a bounded
// number of retries before the error surfaces.
package fsappend

import (
	"fmt"
	"os"
	"time"
)

const (
	maxAttempts = 3
	backoffUnit = 150 * time.Millisecond
)

// Sleeper pauses between retry attempts. Injectable for tests.
type Sleeper func(time.Duration)

// Append writes data to the end of path, creating the file if needed.
// Attempts are retried with linear backoff; the handle is released on every
// path, success or failure.
func Append(path string, data []byte) error {
	return AppendWithSleeper(path, data, time.Sleep)
}

// AppendWithSleeper is Append with an injectable backoff sleeper.
func AppendWithSleeper(path string, data []byte, sleep Sleeper) error {
	if sleep == nil {
		sleep = time.Sleep
	}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			sleep(backoffUnit * time.Duration(attempt-1))
		}
		if err := appendOnce(path, data); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return fmt.Errorf("append to %s after %d attempts: %w", path, maxAttempts, lastErr)
}

func appendOnce(path string, data []byte) error {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	_, writeErr := file.Write(data)
	closeErr := file.Close()
	if writeErr != nil {
		return writeErr
	}
	return closeErr
}
