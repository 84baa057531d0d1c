package notifyable

import (
	"encoding/json"
	"sync"

	"github.com/yahoo/clusterlib-go/errs"
	"github.com/yahoo/clusterlib-go/repository"
)

// subDocument is the shared machinery behind every cached sub-document
// kind in §3: a JSON body, a store-assigned version, and a per-document
// lock that is never held across repository I/O (§5's lock ordering
// rule). publish() fails on a version mismatch unless unconditional is
// set, per §3's conditional-publish invariant.
type subDocument struct {
	mu      sync.Mutex
	path    string
	body    map[string]interface{}
	version int32
	loaded  bool
}

func newSubDocument(path string) *subDocument {
	return &subDocument{path: path, body: make(map[string]interface{})}
}

// Well-known sub-document child names, per §6: each is a JSON document
// living as its own znode under the owning notifyable, version-gated on
// write.
const (
	SubDocKeyValues        = "_keyValJSONObject"
	SubDocCurrentState     = "_currentStateJSONObject"
	SubDocDesiredState     = "_desiredStateJSONObject"
	SubDocShards           = "_shardJSONObject"
	SubDocProcessInfo      = "_processInfoJSONObject"
	SubDocProcessSlotInfo  = "_processSlotInfoJSONObject"
)

func subDocPath(ownerKey, subDocName string) string {
	return ownerKey + "/" + subDocName
}

// loadFromRepository installs freshly-fetched data and its store
// version. Empty data leaves the constructor-default empty body in
// place, per §8's boundary case, while still advancing the version.
func (d *subDocument) loadFromRepository(data []byte, version int32) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if len(data) == 0 {
		d.body = make(map[string]interface{})
		d.version = version
		d.loaded = true
		return nil
	}

	var body map[string]interface{}
	if err := json.Unmarshal(data, &body); err != nil {
		return errs.InconsistentInternalStatef("sub-document %q: malformed JSON: %s", d.path, err)
	}

	d.body = body
	d.version = version
	d.loaded = true
	return nil
}

// encode serializes the current body for a publish call. Returns the
// version the caller should publish conditionally against, unless
// unconditional is requested by the caller of publish().
func (d *subDocument) encode() ([]byte, int32, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	raw, err := json.Marshal(d.body)
	if err != nil {
		return nil, 0, errs.InconsistentInternalStatef("sub-document %q: encode failed: %s", d.path, err)
	}
	return raw, d.version, nil
}

func (d *subDocument) onPublished(newVersion int32) {
	d.mu.Lock()
	d.version = newVersion
	d.mu.Unlock()
}

func (d *subDocument) Version() int32 {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

func (d *subDocument) get(k string) (interface{}, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.body[k]
	return v, ok
}

func (d *subDocument) set(k string, v interface{}) {
	d.mu.Lock()
	d.body[k] = v
	d.mu.Unlock()
}

// publish encodes the current body and writes it to repo at d.path,
// conditioned on the locally-known version unless unconditional is set,
// per §3's conditional-publish invariant: a conditional write that sees
// a newer store version fails with BadVersionException (translated by
// the repository adapter) rather than silently overwriting.
func (d *subDocument) publish(repo *repository.Repository, unconditional bool) error {
	raw, version, err := d.encode()
	if err != nil {
		return err
	}

	if unconditional {
		version = -1
	}

	stat, err := repo.SetData(d.path, raw, version)
	if errs.Is(err, errs.InvalidArguments) {
		if createErr := repo.Create(d.path, raw); createErr != nil && !errs.Is(createErr, errs.InvalidArguments) {
			return createErr
		}
		stat, err = repo.SetData(d.path, raw, -1)
	}
	if err != nil {
		return err
	}

	d.onPublished(stat.Version)
	return nil
}

func (d *subDocument) snapshot() map[string]interface{} {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := make(map[string]interface{}, len(d.body))
	for k, v := range d.body {
		out[k] = v
	}
	return out
}

// CachedKeyValues is the string->JSON map sub-document backing a
// PropertyList's body.
type CachedKeyValues struct {
	doc *subDocument
}

func newCachedKeyValues(path string) *CachedKeyValues {
	return &CachedKeyValues{doc: newSubDocument(path)}
}

func (c *CachedKeyValues) Get(k string) (interface{}, bool) { return c.doc.get(k) }
func (c *CachedKeyValues) Set(k string, v interface{})      { c.doc.set(k, v) }
func (c *CachedKeyValues) Snapshot() map[string]interface{} { return c.doc.snapshot() }
func (c *CachedKeyValues) Version() int32                   { return c.doc.Version() }

// Publish writes the current body to the repository, conditioned on the
// locally-known version unless unconditional is set.
func (c *CachedKeyValues) Publish(repo *repository.Repository, unconditional bool) error {
	return c.doc.publish(repo, unconditional)
}

// LoadFromRepository refreshes the body from the repository's current
// data and version, per §8's round-trip law
// (set; publish; loadDataFromRepository; get = value set).
func (c *CachedKeyValues) LoadFromRepository(repo *repository.Repository) error {
	data, stat, err := repo.GetData(c.doc.path, nil)
	if errs.Is(err, errs.InvalidArguments) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.doc.loadFromRepository(data, stat.Version)
}

// CachedCurrentState and CachedDesiredState are arbitrary JSON object
// sub-documents; the health key (clientState/clientStateDesc, §4.7)
// lives in CachedCurrentState.
type CachedCurrentState struct {
	doc *subDocument
}

func newCachedCurrentState(path string) *CachedCurrentState {
	return &CachedCurrentState{doc: newSubDocument(path)}
}

func (c *CachedCurrentState) Get(k string) (interface{}, bool) { return c.doc.get(k) }
func (c *CachedCurrentState) Set(k string, v interface{})      { c.doc.set(k, v) }
func (c *CachedCurrentState) Snapshot() map[string]interface{} { return c.doc.snapshot() }

// Publish writes the current body to the repository, conditioned on the
// locally-known version unless unconditional is set.
func (c *CachedCurrentState) Publish(repo *repository.Repository, unconditional bool) error {
	return c.doc.publish(repo, unconditional)
}

// LoadFromRepository refreshes the body from the repository's current
// data and version.
func (c *CachedCurrentState) LoadFromRepository(repo *repository.Repository) error {
	data, stat, err := repo.GetData(c.doc.path, nil)
	if errs.Is(err, errs.InvalidArguments) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.doc.loadFromRepository(data, stat.Version)
}

const (
	keyClientState     = "clientState"
	keyClientStateDesc = "clientStateDesc"
)

func (c *CachedCurrentState) ClientState() string {
	v, _ := c.Get(keyClientState)
	s, _ := v.(string)
	return s
}

func (c *CachedCurrentState) SetClientState(state, desc string) {
	c.Set(keyClientState, state)
	c.Set(keyClientStateDesc, desc)
}

type CachedDesiredState struct {
	doc *subDocument
}

func newCachedDesiredState(path string) *CachedDesiredState {
	return &CachedDesiredState{doc: newSubDocument(path)}
}

func (c *CachedDesiredState) Get(k string) (interface{}, bool) { return c.doc.get(k) }
func (c *CachedDesiredState) Set(k string, v interface{})      { c.doc.set(k, v) }

func (c *CachedDesiredState) Publish(repo *repository.Repository, unconditional bool) error {
	return c.doc.publish(repo, unconditional)
}

func (c *CachedDesiredState) LoadFromRepository(repo *repository.Repository) error {
	data, stat, err := repo.GetData(c.doc.path, nil)
	if errs.Is(err, errs.InvalidArguments) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.doc.loadFromRepository(data, stat.Version)
}

// CachedProcessInfo wraps a node's process-table JSON sub-document.
type CachedProcessInfo struct {
	doc *subDocument
}

func newCachedProcessInfo(path string) *CachedProcessInfo {
	return &CachedProcessInfo{doc: newSubDocument(path)}
}

func (c *CachedProcessInfo) Get(k string) (interface{}, bool) { return c.doc.get(k) }
func (c *CachedProcessInfo) Set(k string, v interface{})      { c.doc.set(k, v) }

func (c *CachedProcessInfo) Publish(repo *repository.Repository, unconditional bool) error {
	return c.doc.publish(repo, unconditional)
}

func (c *CachedProcessInfo) LoadFromRepository(repo *repository.Repository) error {
	data, stat, err := repo.GetData(c.doc.path, nil)
	if errs.Is(err, errs.InvalidArguments) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.doc.loadFromRepository(data, stat.Version)
}

// Process state and binary state well-known keys and values, per
// _examples/original_source/src/include/processslot.h's static-const
// strings, carried over as exported Go constants rather than free
// string literals.
const (
	ProcessSlotExecEnv              = "execEnv"
	ProcessSlotExecPath             = "execPath"
	ProcessSlotExecCommand          = "execCommand"
	ProcessSlotProcessState         = "processState"
	ProcessSlotProcessStateMsg      = "processStateMsg"
	ProcessSlotProcessStateSetMsecs = "processStateSetMsecs"
	ProcessSlotBinaryState          = "binaryState"
)

const (
	ProcessStateRunning          = "running"
	ProcessStateRunOnce          = "runOnce"
	ProcessStateRunContinuously  = "runContinuously"
	ProcessStateExit             = "exit"
	ProcessStateCleanExit        = "cleanExit"
	ProcessStateFailure          = "failure"
)

const (
	BinaryStateNone      = "none"
	BinaryStatePreparing = "preparing"
	BinaryStateReady     = "ready"
	BinaryStateBusy      = "busy"
	BinaryStateHalting   = "halting"
)

// CachedProcessSlotInfo wraps a ProcessSlot's desired/current-state
// sub-document, exposing the well-known keys above as typed accessors
// rather than free-standing string literals.
type CachedProcessSlotInfo struct {
	doc *subDocument
}

func newCachedProcessSlotInfo(path string) *CachedProcessSlotInfo {
	return &CachedProcessSlotInfo{doc: newSubDocument(path)}
}

func (c *CachedProcessSlotInfo) ExecEnv() map[string]interface{} {
	v, _ := c.doc.get(ProcessSlotExecEnv)
	m, _ := v.(map[string]interface{})
	return m
}

func (c *CachedProcessSlotInfo) SetExecEnv(env map[string]interface{}) {
	c.doc.set(ProcessSlotExecEnv, env)
}

func (c *CachedProcessSlotInfo) ExecPath() string {
	v, _ := c.doc.get(ProcessSlotExecPath)
	s, _ := v.(string)
	return s
}

func (c *CachedProcessSlotInfo) SetExecPath(p string) { c.doc.set(ProcessSlotExecPath, p) }

func (c *CachedProcessSlotInfo) ExecCommand() string {
	v, _ := c.doc.get(ProcessSlotExecCommand)
	s, _ := v.(string)
	return s
}

func (c *CachedProcessSlotInfo) SetExecCommand(cmd string) { c.doc.set(ProcessSlotExecCommand, cmd) }

func (c *CachedProcessSlotInfo) ProcessState() string {
	v, _ := c.doc.get(ProcessSlotProcessState)
	s, _ := v.(string)
	return s
}

func (c *CachedProcessSlotInfo) SetProcessState(state string, msg string, setMsecs int64) {
	c.doc.set(ProcessSlotProcessState, state)
	c.doc.set(ProcessSlotProcessStateMsg, msg)
	c.doc.set(ProcessSlotProcessStateSetMsecs, setMsecs)
}

func (c *CachedProcessSlotInfo) BinaryState() string {
	v, _ := c.doc.get(ProcessSlotBinaryState)
	s, _ := v.(string)
	return s
}

func (c *CachedProcessSlotInfo) SetBinaryState(state string) { c.doc.set(ProcessSlotBinaryState, state) }

func (c *CachedProcessSlotInfo) Publish(repo *repository.Repository, unconditional bool) error {
	return c.doc.publish(repo, unconditional)
}

func (c *CachedProcessSlotInfo) LoadFromRepository(repo *repository.Repository) error {
	data, stat, err := repo.GetData(c.doc.path, nil)
	if errs.Is(err, errs.InvalidArguments) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.doc.loadFromRepository(data, stat.Version)
}

// CachedShards wraps a DataDistribution's shard map sub-document.
type CachedShards struct {
	doc *subDocument
}

func newCachedShards(path string) *CachedShards {
	return &CachedShards{doc: newSubDocument(path)}
}

func (c *CachedShards) Get(k string) (interface{}, bool) { return c.doc.get(k) }
func (c *CachedShards) Set(k string, v interface{})      { c.doc.set(k, v) }

func (c *CachedShards) Publish(repo *repository.Repository, unconditional bool) error {
	return c.doc.publish(repo, unconditional)
}

func (c *CachedShards) LoadFromRepository(repo *repository.Repository) error {
	data, stat, err := repo.GetData(c.doc.path, nil)
	if errs.Is(err, errs.InvalidArguments) {
		return nil
	}
	if err != nil {
		return err
	}
	return c.doc.loadFromRepository(data, stat.Version)
}
