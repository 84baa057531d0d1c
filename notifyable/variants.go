package notifyable

import (
	"github.com/yahoo/clusterlib-go/key"
)

// Root is the top-level notifyable a Factory is rooted at.
type Root struct {
	*Notifyable
}

// Application is a child of Root and the container for Groups,
// DataDistributions, PropertyLists, and Queues.
type Application struct {
	*Notifyable
	keyValues    *CachedKeyValues
	currentState *CachedCurrentState
	desiredState *CachedDesiredState
}

func newApplication(n *Notifyable) *Application {
	return &Application{
		Notifyable:   n,
		keyValues:    newCachedKeyValues(subDocPath(n.Key, SubDocKeyValues)),
		currentState: newCachedCurrentState(subDocPath(n.Key, SubDocCurrentState)),
		desiredState: newCachedDesiredState(subDocPath(n.Key, SubDocDesiredState)),
	}
}

func (a *Application) KeyValues() *CachedKeyValues       { return a.keyValues }
func (a *Application) CurrentState() *CachedCurrentState { return a.currentState }
func (a *Application) DesiredState() *CachedDesiredState { return a.desiredState }

func (a *Application) GroupsContainer() (string, error) { return key.ContainerOf(a.Key, key.KindGroup) }
func (a *Application) NodesContainer() (string, error)  { return key.ContainerOf(a.Key, key.KindNode) }

// Group contains Nodes and participates in leader election (§4.5).
type Group struct {
	*Notifyable
	currentState *CachedCurrentState
	desiredState *CachedDesiredState

	currentBid int64
}

func newGroup(n *Notifyable) *Group {
	return &Group{
		Notifyable:   n,
		currentState: newCachedCurrentState(subDocPath(n.Key, SubDocCurrentState)),
		desiredState: newCachedDesiredState(subDocPath(n.Key, SubDocDesiredState)),
		currentBid:   -1,
	}
}

func (g *Group) NodesContainer() (string, error) { return key.ContainerOf(g.Key, key.KindNode) }

// CurrentLeaderPath and LeadershipBidsPath are the two well-known path
// fragments §3's leadership state resolves once on first use.
func (g *Group) CurrentLeaderPath() string  { return g.Key + "/_currentLeader" }
func (g *Group) LeadershipBidsPath() string { return g.Key + "/_leadershipBids" }

// KnownLeader is the name last observed on "_currentLeader" by this
// Group's leadership watch, kept on the shared Notifyable so every
// caller resolving this key sees the same value regardless of which
// Group wrapper installed the watch.
func (g *Group) KnownLeader() string { return g.Notifyable.knownLeader() }

// Node is a member of a Group; it may host ProcessSlots and participates
// in the health engine via its _connected ephemeral child.
type Node struct {
	*Notifyable
	currentState *CachedCurrentState
	desiredState *CachedDesiredState
	processInfo  *CachedProcessInfo
}

func newNode(n *Notifyable) *Node {
	return &Node{
		Notifyable:   n,
		currentState: newCachedCurrentState(subDocPath(n.Key, SubDocCurrentState)),
		desiredState: newCachedDesiredState(subDocPath(n.Key, SubDocDesiredState)),
		processInfo:  newCachedProcessInfo(subDocPath(n.Key, SubDocProcessInfo)),
	}
}

func (n *Node) CurrentState() *CachedCurrentState { return n.currentState }
func (n *Node) DesiredState() *CachedDesiredState { return n.desiredState }
func (n *Node) ProcessInfo() *CachedProcessInfo   { return n.processInfo }

func (n *Node) ConnectedPath() string { return n.Key + "/_connected" }

func (n *Node) ClientState() string { return n.currentState.ClientState() }

// ProcessSlot is a child of Node describing one supervised process.
type ProcessSlot struct {
	*Notifyable
	info *CachedProcessSlotInfo
}

func newProcessSlot(n *Notifyable) *ProcessSlot {
	return &ProcessSlot{Notifyable: n, info: newCachedProcessSlotInfo(subDocPath(n.Key, SubDocProcessSlotInfo))}
}

func (p *ProcessSlot) Info() *CachedProcessSlotInfo { return p.info }

// DataDistribution carries a shard map.
type DataDistribution struct {
	*Notifyable
	shards *CachedShards
}

func newDataDistribution(n *Notifyable) *DataDistribution {
	return &DataDistribution{Notifyable: n, shards: newCachedShards(subDocPath(n.Key, SubDocShards))}
}

func (d *DataDistribution) Shards() *CachedShards { return d.shards }

// PropertyList is a string->JSON key-value document shared by any
// ancestor in the chain. CachedKeyValues.Get looks only at this list;
// Factory.GetPropertyValueSearchParent implements the searchParent
// ascent via key.RemoveObjectFromKey when a key is missing locally (§4.2).
type PropertyList struct {
	*Notifyable
	values *CachedKeyValues
}

func newPropertyList(n *Notifyable) *PropertyList {
	return &PropertyList{Notifyable: n, values: newCachedKeyValues(subDocPath(n.Key, SubDocKeyValues))}
}

func (p *PropertyList) Values() *CachedKeyValues { return p.values }

// Queue is a FIFO of opaque payloads backing C6's request/response/
// completed queues.
type Queue struct {
	*Notifyable
}

func newQueue(n *Notifyable) *Queue {
	return &Queue{Notifyable: n}
}
