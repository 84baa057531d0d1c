package clusterlib

import (
	"io/ioutil"

	"gopkg.in/yaml.v2"

	"github.com/yahoo/clusterlib-go/cache"
	"github.com/yahoo/clusterlib-go/config"
	"github.com/yahoo/clusterlib-go/election"
	"github.com/yahoo/clusterlib-go/event"
	"github.com/yahoo/clusterlib-go/health"
	"github.com/yahoo/clusterlib-go/lock"
	"github.com/yahoo/clusterlib-go/metrics"
	"github.com/yahoo/clusterlib-go/notifyable"
	"github.com/yahoo/clusterlib-go/repository"
	"github.com/yahoo/clusterlib-go/rpc"
)

// Config is the top-level, YAML-loadable configuration for a Runtime: a
// single flat document (matching the teacher's YAMLServerConfig shape)
// whose fields every component's own *Config struct also binds against,
// so each component's LoadFromFile/Validate can be exercised standalone.
type Config struct {
	LogLevel     string `yaml:"logLevel"`
	WarmCacheDir string `yaml:"warmCacheDir"`

	ZooKeeper  config.ZooKeeperConfig
	RPCManager config.RPCManagerConfig
	Health     config.HealthCheckConfig
}

func (c *Config) LoadFromFile(file string) error {
	raw, err := ioutil.ReadFile(file)
	if err != nil {
		return err
	}

	if err := yaml.Unmarshal(raw, c); err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, &c.RPCManager); err != nil {
		return err
	}
	if err := yaml.Unmarshal(raw, &c.Health); err != nil {
		return err
	}

	if err := c.ZooKeeper.LoadFromFile(file); err != nil {
		return err
	}
	if c.RPCManager.MaxStatusShown <= 0 {
		c.RPCManager.MaxStatusShown = 10
	}
	return c.Health.Validate()
}

// Runtime is the single process-wide value every component is threaded
// through: the repository session, the notifyable factory, the lock and
// election engines, the RPC client, the health engine, the event bridge,
// and the metrics registry. Per §9's design note, it replaces scattered
// global state (the logging module and static constants) with one
// explicit value the caller constructs and owns.
type Runtime struct {
	Config *Config

	Repository *repository.Repository
	Factory    *notifyable.Factory
	Locks      *lock.Engine
	Election   *election.Engine
	RPCClient  *rpc.Client
	Health     *health.Engine
	Bridge     *event.Bridge
	Metrics    *metrics.Registry
	WarmCache  *cache.Store
}

// NewRuntime wires every component together against cfg, but does not
// connect to the repository — call Start to do that.
func NewRuntime(cfg *Config) *Runtime {
	repo := repository.New(cfg.ZooKeeper)
	bridge := event.NewBridge()
	factory := notifyable.NewFactory(repo, bridge)
	locks := lock.NewEngine(repo)
	elect := election.NewEngine(repo)
	rpcClient := rpc.NewClient(repo)
	healthEngine := health.NewEngine(repo, cfg.Health)
	reg := metrics.New()

	repo.UseMetrics(reg)
	locks.UseMetrics(reg)
	rpcClient.UseMetrics(reg)
	healthEngine.UseMetrics(reg)
	factory.UseElection(elect)

	return &Runtime{
		Config:     cfg,
		Repository: repo,
		Factory:    factory,
		Locks:      locks,
		Election:   elect,
		RPCClient:  rpcClient,
		Health:     healthEngine,
		Bridge:     bridge,
		Metrics:    reg,
	}
}

// Start opens the local warm-cache snapshot store (if configured) and
// connects the repository session. The warm cache is opened first so a
// connect failure can still fall back to serving stale cached reads.
func (r *Runtime) Start() error {
	if r.Config.WarmCacheDir != "" {
		store, err := cache.Open(r.Config.WarmCacheDir)
		if err != nil {
			return err
		}
		r.WarmCache = store
		r.Factory.UseWarmCache(store)
	}

	return r.Repository.Connect()
}

// Stop tears down the repository session and closes the warm cache.
// Held locks and leadership bids are released implicitly by the
// session's ephemeral nodes.
func (r *Runtime) Stop() error {
	r.Repository.Disconnect(true)

	if r.WarmCache != nil {
		return r.WarmCache.Close()
	}
	return nil
}
