// Package config holds the YAML-tagged configuration structs for the
// repository connection, the RPC fabric, and health checking, loaded the
// same way the teacher loads its server config: unmarshal then validate.
package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"
)

// ZooKeeperConfig configures the repository adapter's connection to the
// backing store.
type ZooKeeperConfig struct {
	Hosts            string `yaml:"hosts"`
	AutoReconnect    bool   `yaml:"autoReconnect"`
	ConnectTimeoutMs int64  `yaml:"connectTimeoutMs"`
}

func (c *ZooKeeperConfig) LoadFromFile(file string) error {
	raw, err := ioutil.ReadFile(file)

	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return err
	}

	return c.validate()
}

func (c *ZooKeeperConfig) validate() error {
	if len(c.Hosts) == 0 {
		return fmt.Errorf("hosts must be a non-empty connection string")
	}

	if c.ConnectTimeoutMs <= 0 {
		c.ConnectTimeoutMs = 10000
	}

	return nil
}

func (c *ZooKeeperConfig) ConnectTimeout() time.Duration {
	return time.Duration(c.ConnectTimeoutMs) * time.Millisecond
}

// RPCManagerConfig configures a ClusterlibRPCManager's completed-queue
// fallback and retry policy.
type RPCManagerConfig struct {
	CompletedQueueMaxSize int `yaml:"completedQueueMaxSize"`
	MaxStatusRetries      int `yaml:"maxStatusRetries"`
	MaxStatusShown        int `yaml:"maxStatusShown"`
}

func (c *RPCManagerConfig) LoadFromFile(file string) error {
	raw, err := ioutil.ReadFile(file)

	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return err
	}

	if c.MaxStatusShown <= 0 {
		c.MaxStatusShown = 10
	}

	return nil
}

// Unbounded is the sentinel used for CompletedQueueMaxSize == -1.
const Unbounded = -1

// HealthCheckConfig configures the periodic health engine bound to a
// single node's registered checker.
type HealthCheckConfig struct {
	MsecsPerCheckIfHealthy   int64 `yaml:"msecsPerCheckIfHealthy"`
	MsecsPerCheckIfUnhealthy int64 `yaml:"msecsPerCheckIfUnhealthy"`
	MsecsAllowedPerHealthCheck int64 `yaml:"msecsAllowedPerHealthCheck"`
}

func (c *HealthCheckConfig) Validate() error {
	if c.MsecsPerCheckIfHealthy <= 0 {
		return fmt.Errorf("msecsPerCheckIfHealthy must be positive")
	}

	if c.MsecsPerCheckIfUnhealthy <= 0 {
		return fmt.Errorf("msecsPerCheckIfUnhealthy must be positive")
	}

	if c.MsecsAllowedPerHealthCheck <= 0 {
		c.MsecsAllowedPerHealthCheck = c.MsecsPerCheckIfHealthy
	}

	return nil
}

func (c *HealthCheckConfig) HealthyInterval() time.Duration {
	return time.Duration(c.MsecsPerCheckIfHealthy) * time.Millisecond
}

func (c *HealthCheckConfig) UnhealthyInterval() time.Duration {
	return time.Duration(c.MsecsPerCheckIfUnhealthy) * time.Millisecond
}

func (c *HealthCheckConfig) CheckDeadline() time.Duration {
	return time.Duration(c.MsecsAllowedPerHealthCheck) * time.Millisecond
}
