package config

import (
	"os"
	"strconv"
)

// ListenAddr returns the address the HTTP server binds to.
func ListenAddr() string {
	if port := os.Getenv("PORT"); port != "" {
		return ":" + port
	}
	return ":8080"
}

// WorkerCount returns how many workers the dispatcher runs.
func WorkerCount() int {
	return envInt("WORKER_COUNT", 5)
}

// JobQueueSize returns the capacity of the dispatcher's job queue.
func JobQueueSize() int {
	return envInt("JOB_QUEUE_SIZE", 100)
}

func envInt(key string, fallback int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
