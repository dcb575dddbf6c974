package docker

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	dockerTypes "github.com/docker/docker/api/types"
	dockerEvents "github.com/docker/docker/api/types/events"
	"github.com/docker/docker/api/types/filters"
	docker "github.com/docker/docker/client"
	"github.com/patrickmn/go-cache"
	"github.com/sirupsen/logrus"

	"github.com/codado/codado/dockerish"
)

// apiClient is the part of the Docker Engine API the Engine needs
type apiClient interface {
	Events(ctx context.Context, options dockerTypes.EventsOptions) (<-chan dockerEvents.Message, <-chan error)
	ContainerInspect(ctx context.Context, containerID string) (dockerTypes.ContainerJSON, error)
	ImageInspectWithRaw(ctx context.Context, imageID string) (dockerTypes.ImageInspect, []byte, error)
	NetworkInspect(ctx context.Context, networkID string) (dockerTypes.NetworkResource, error)
	VolumeInspect(ctx context.Context, volumeID string) (dockerTypes.Volume, error)
	PluginInspectWithRaw(ctx context.Context, name string) (*dockerTypes.Plugin, []byte, error)
	Info(ctx context.Context) (dockerTypes.Info, error)
}

var _ dockerish.Engine = (*Engine)(nil)

// errOtherDaemon is returned when looking up a daemon other than the connected one
var errOtherDaemon = errors.New("not the connected daemon")

// Engine is a dockerish.Engine talking to a Docker daemon
type Engine struct {
	api     apiClient
	filters map[string][]string
	lookups *cache.Cache
}

// Options tunes an Engine
type Options struct {
	// Filters restricts the queried events, e.g. {"type": {"container", "network"}}
	Filters map[string][]string

	// LookupCacheTTL is how long a resolved resource is reused; 0 disables the cache
	LookupCacheTTL time.Duration
}

// Connect creates the Docker client once and keeps it for the Engine's lifetime. An empty host
// falls back to the DOCKER_HOST family of environment variables.
func Connect(host string, opts Options) (*Engine, error) {
	var (
		cli *docker.Client
		err error
	)
	if strings.TrimSpace(host) == "" {
		cli, err = docker.NewEnvClient()
	} else {
		cli, err = docker.NewClient(host, "", nil, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("creating the docker client: %w", err)
	}
	logrus.Debugf("docker client created for %q", host)
	return newEngine(cli, opts), nil
}

func newEngine(api apiClient, opts Options) *Engine {
	e := &Engine{
		api:     api,
		filters: opts.Filters,
	}
	if opts.LookupCacheTTL > 0 {
		e.lookups = cache.New(opts.LookupCacheTTL, 2*opts.LookupCacheTTL)
	}
	return e
}

// Lookup inspects the live resource of the given kind. Missing resources yield an error wrapping
// dockerish.ErrNotFound; they are never cached.
func (e *Engine) Lookup(ctx context.Context, kind dockerish.Kind, ref string) (dockerish.Resource, error) {
	key := string(kind) + "/" + ref
	if e.lookups != nil {
		if value, found := e.lookups.Get(key); found {
			return value, nil
		}
	}

	res, err := e.inspect(ctx, kind, ref)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s %s: %w", kind, ref, dockerish.ErrNotFound)
		}
		return nil, fmt.Errorf("inspecting %s %s: %w", kind, ref, err)
	}

	if e.lookups != nil {
		e.lookups.Set(key, res, cache.DefaultExpiration)
	}
	return res, nil
}

func (e *Engine) inspect(ctx context.Context, kind dockerish.Kind, ref string) (dockerish.Resource, error) {
	switch kind {
	case dockerish.KindContainer:
		return e.api.ContainerInspect(ctx, ref)
	case dockerish.KindImage:
		image, _, err := e.api.ImageInspectWithRaw(ctx, ref)
		return image, err
	case dockerish.KindNetwork:
		return e.api.NetworkInspect(ctx, ref)
	case dockerish.KindVolume:
		return e.api.VolumeInspect(ctx, ref)
	case dockerish.KindPlugin:
		plugin, _, err := e.api.PluginInspectWithRaw(ctx, ref)
		if err != nil {
			return nil, err
		}
		return plugin, nil
	case dockerish.KindDaemon:
		info, err := e.api.Info(ctx)
		if err != nil {
			return nil, err
		}
		if info.ID != ref {
			return nil, fmt.Errorf("%w, connected to %s", errOtherDaemon, info.ID)
		}
		return info, nil
	}
	return nil, fmt.Errorf("unknown resource kind %q", kind)
}

// isNotFound recognizes the daemon's "no such object" answers
func isNotFound(err error) bool {
	return errors.Is(err, errOtherDaemon) || docker.IsErrNotFound(err)
}

func toFilterArgs(m map[string][]string) filters.Args {
	args := filters.NewArgs()
	for key, values := range m {
		for _, v := range values {
			args.Add(key, v)
		}
	}
	return args
}

// ParseFilters turns key=value pairs, as given on the command line, into event filters
func ParseFilters(pairs []string) (map[string][]string, error) {
	m := make(map[string][]string)
	for _, pair := range pairs {
		kv := strings.SplitN(pair, "=", 2)
		if len(kv) != 2 || strings.TrimSpace(kv[0]) == "" || strings.TrimSpace(kv[1]) == "" {
			return nil, fmt.Errorf("invalid filter %q, expected key=value", pair)
		}
		key := strings.TrimSpace(kv[0])
		m[key] = append(m[key], strings.TrimSpace(kv[1]))
	}
	return m, nil
}
