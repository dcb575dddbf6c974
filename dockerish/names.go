package dockerish

import "sort"

const (
	// Wildcard is the registry key of handlers that receive every event
	Wildcard = "*"

	// InitEventName is the synthetic event dispatched once when the dispatcher starts
	InitEventName = "dockerish.init"
)

// event categories, as reported in the Type field of a raw event
const (
	TypeContainer = "container"
	TypeImage     = "image"
	TypePlugin    = "plugin"
	TypeVolume    = "volume"
	TypeNetwork   = "network"
	TypeDaemon    = "daemon"
	TypeDockerish = "dockerish"
)

var actions = map[string][]string{
	TypeContainer: {
		"attach", "commit", "copy", "create", "destroy", "detach", "die",
		"exec_create", "exec_detach", "exec_start", "export", "health_status",
		"kill", "oom", "pause", "rename", "resize", "restart", "start", "stop",
		"top", "unpause", "update",
	},
	TypeImage:     {"delete", "import", "load", "pull", "push", "save", "tag", "untag"},
	TypePlugin:    {"install", "enable", "disable", "remove"},
	TypeVolume:    {"create", "mount", "unmount", "destroy"},
	TypeNetwork:   {"create", "connect", "disconnect", "destroy"},
	TypeDaemon:    {"reload"},
	TypeDockerish: {"init"},
}

var known = func() map[string]bool {
	m := make(map[string]bool)
	for eventType, acts := range actions {
		for _, a := range acts {
			m[eventType+"."+a] = true
		}
	}
	return m
}()

// Known reports whether name is a recognized dotted event name or the wildcard
func Known(name string) bool {
	return name == Wildcard || known[name]
}

// Names returns the sorted vocabulary of recognized event names, wildcard excluded
func Names() []string {
	names := make([]string, 0, len(known))
	for n := range known {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
