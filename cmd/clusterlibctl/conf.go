package main

import (
	"fmt"
)

var templateConfig string = `# hosts is the ZooKeeper connection string, e.g. "zk1:2181,zk2:2181".
# **REQUIRED**
hosts: 127.0.0.1:2181

# autoReconnect governs the adapter's retry budget on ConnectionLoss and
# OperationTimeout: 2 retries when true, 0 (fail fast) when false.
autoReconnect: true

# connectTimeoutMs bounds how long Connect() waits for the initial
# session to establish.
connectTimeoutMs: 10000

# completedQueueMaxSize bounds the RPC manager's completed-request
# queue; -1 means unbounded, 0 disables the completed queue entirely.
completedQueueMaxSize: 1000

# maxStatusRetries bounds how many times a BadVersion race on the status
# property list is retried before giving up silently; -1 means unbounded.
maxStatusRetries: 5

# maxStatusShown bounds how many status entries are kept per method.
maxStatusShown: 10

# msecsPerCheckIfHealthy/msecsPerCheckIfUnhealthy set the health
# engine's cadence while the last report was healthy/unhealthy,
# respectively. Both must be positive.
msecsPerCheckIfHealthy: 30000
msecsPerCheckIfUnhealthy: 5000

# logLevel adjusts verbosity: one of CRITICAL, ERROR, WARNING, NOTICE,
# INFO, DEBUG.
logLevel: INFO

# warmCacheDir, if set, opens a local goleveldb warm-cache snapshot
# store (C11) at this path so a reconnecting process can serve
# last-known-good reads before synchronize() completes. Leave blank to
# disable.
warmCacheDir: ""
`

func init() {
	registerCommand("conf", generateConfig, confUsage)
}

var confUsage string = `Usage: clusterlibctl conf > path/to/output.yaml
`

func generateConfig() {
	fmt.Print(templateConfig)
}
