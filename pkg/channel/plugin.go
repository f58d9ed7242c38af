package channel

import (
	"github.com/danpilch/perfmon/pkg/host"
)

// AttachableSampler is a Sampler whose memory manager follows the activity
// lifecycle.
type AttachableSampler interface {
	Sampler
	Attach(m host.MemoryManager)
	Detach()
}

// Plugin binds a channel and a sampler to engine and activity lifecycle
// events. The memory manager is only valid between the activity attach and
// detach calls.
type Plugin struct {
	ch      *Channel
	sampler AttachableSampler
	opts    BindOptions
}

// NewPlugin creates a plugin. Nothing is registered until OnAttachedToEngine.
func NewPlugin(ch *Channel, s AttachableSampler, opts BindOptions) *Plugin {
	return &Plugin{ch: ch, sampler: s, opts: opts}
}

// Channel returns the plugin's channel.
func (p *Plugin) Channel() *Channel {
	return p.ch
}

// OnAttachedToEngine registers the method handlers.
func (p *Plugin) OnAttachedToEngine() {
	Bind(p.ch, p.sampler, p.opts)
}

// OnDetachedFromEngine removes the method handlers.
func (p *Plugin) OnDetachedFromEngine() {
	p.ch.Unregister()
}

// OnAttachedToActivity installs the activity's memory manager.
func (p *Plugin) OnAttachedToActivity(m host.MemoryManager) {
	p.sampler.Attach(m)
}

// OnDetachedFromActivityForConfigChanges drops the memory manager.
func (p *Plugin) OnDetachedFromActivityForConfigChanges() {
	p.sampler.Detach()
}

// OnReattachedToActivityForConfigChanges installs the new memory manager.
func (p *Plugin) OnReattachedToActivityForConfigChanges(m host.MemoryManager) {
	p.sampler.Attach(m)
}

// OnDetachedFromActivity drops the memory manager.
func (p *Plugin) OnDetachedFromActivity() {
	p.sampler.Detach()
}
