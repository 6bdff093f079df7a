package hdfs

import (
	"fmt"
	"net"
	"path"
	"strconv"
	"strings"

	"github.com/ValentinKolb/eKV/lib/env"
)

// Scheme is the URI scheme of the HDFS backend.
const Scheme = "hdfs"

// DefaultHost selects the namenodes from the Hadoop configuration found in
// HADOOP_CONF_DIR or HADOOP_HOME instead of naming them in the URI.
const DefaultHost = "default"

// Args are the connection arguments of an HDFS environment, parsed from
// hdfs://[user@]host:port[,host:port...][/root].
type Args struct {
	Addresses []string // namenode addresses (empty = read from the Hadoop configuration)
	User      string   // user to act as ("" = current OS user)
	Root      string   // directory that relative names are resolved against
}

// ParseArgs parses an HDFS URI. It is only called after the capability
// check has passed.
func ParseArgs(uri string) (Args, error) {
	scheme, rest, ok := env.SplitScheme(uri)
	if !ok || scheme != Scheme {
		return Args{}, malformed(uri, "expected hdfs://host:port")
	}

	authority, root, _ := strings.Cut(rest, "/")

	var args Args
	if user, hosts, found := strings.Cut(authority, "@"); found {
		if user == "" {
			return Args{}, malformed(uri, "empty user")
		}
		args.User = user
		authority = hosts
	}

	if authority == "" {
		return Args{}, malformed(uri, "missing namenode address")
	}

	if authority != DefaultHost {
		for _, addr := range strings.Split(authority, ",") {
			host, port, err := net.SplitHostPort(addr)
			if err != nil {
				return Args{}, malformed(uri, err.Error())
			}
			if host == "" {
				return Args{}, malformed(uri, fmt.Sprintf("missing host in %q", addr))
			}
			if p, err := strconv.ParseUint(port, 10, 16); err != nil || p == 0 {
				return Args{}, malformed(uri, fmt.Sprintf("invalid port in %q", addr))
			}
			args.Addresses = append(args.Addresses, addr)
		}
	}

	if root != "" {
		args.Root = path.Clean("/" + root)
	}
	return args, nil
}

// String formats the arguments back into a URI.
func (a Args) String() string {
	var sb strings.Builder
	sb.WriteString(Scheme + "://")
	if a.User != "" {
		sb.WriteString(a.User + "@")
	}
	if len(a.Addresses) == 0 {
		sb.WriteString(DefaultHost)
	} else {
		sb.WriteString(strings.Join(a.Addresses, ","))
	}
	sb.WriteString(a.Root)
	return sb.String()
}

func malformed(uri, reason string) error {
	return env.NewError(env.KindBackendConstructionFailed, fmt.Sprintf("malformed hdfs uri %q: %s", uri, reason))
}
