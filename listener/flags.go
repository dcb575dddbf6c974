package listener

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/codado/codado/dockerish"
)

const (
	dockerHost     = "docker-host"
	interval       = "interval"
	lookupCacheTTL = "lookup-cache-ttl"
	filter         = "filter"
	dieLimit       = "die-limit"
	format         = "format"
)

// AddFlags adds flags for Builder.
func AddFlags(flags *pflag.FlagSet) {
	flags.String(dockerHost, "", "The address of the Docker daemon; defaults to DOCKER_HOST or the local socket")
	flags.Duration(interval, dockerish.DefaultInterval, "How often the Docker daemon is polled for new events")
	flags.Duration(lookupCacheTTL, DefaultLookupCacheTTL, "How long an inspected container, image, network, etc. is reused; 0 disables the cache")
	flags.StringSlice(filter, nil, "A key=value event filter passed to the Docker daemon, e.g. type=container; may be repeated or comma separated")
	flags.Int(dieLimit, 0, "Stop listening after this many containers died; 0 listens forever")
	flags.String(format, FormatText, "How events are printed: text, json or yaml")
}

// InitFromViper initializes Builder with properties retrieved from Viper.
func (b *Builder) InitFromViper(v *viper.Viper) *Builder {
	b.DockerHost = v.GetString(dockerHost)
	b.Interval = v.GetDuration(interval)
	b.LookupCacheTTL = v.GetDuration(lookupCacheTTL)
	b.Filters = v.GetStringSlice(filter)
	b.DieLimit = v.GetInt(dieLimit)
	b.Format = v.GetString(format)
	return b
}
