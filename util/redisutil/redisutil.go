// Copyright 2021-2026, Offchain Labs, Inc.
// For license information, see https://github.com/offchainlabs/bridgemint/blob/master/LICENSE.md

package redisutil

import (
	"fmt"
	"net"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const sentinelScheme = "redis+sentinel://"

// RedisClientFromURL creates a new Redis client based on the provided URL.
// The URL scheme can be either `redis` or `redis+sentinel`. An empty URL yields a nil client.
func RedisClientFromURL(redisUrl string) (redis.UniversalClient, error) {
	if redisUrl == "" {
		return nil, nil
	}
	// a sentinel authority lists several host:port pairs, which url.Parse rejects
	if strings.HasPrefix(redisUrl, sentinelScheme) {
		redisOptions, err := parseFailoverRedisUrl(redisUrl)
		if err != nil {
			return nil, err
		}
		return redis.NewFailoverClient(redisOptions), nil
	}
	redisOptions, err := redis.ParseURL(redisUrl)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(redisOptions), nil
}

// Example:
//
//	redis+sentinel://<user>:<password>@<host1>:<port1>,<host2>:<port2>/<master_name>/<db_number>?dial_timeout=3&read_timeout=6s&max_retries=2
func parseFailoverRedisUrl(redisUrl string) (*redis.FailoverOptions, error) {
	rest, ok := strings.CutPrefix(redisUrl, sentinelScheme)
	if !ok {
		return nil, fmt.Errorf("redis: sentinel URL must start with %s", sentinelScheme)
	}
	authority, tail := rest, ""
	if i := strings.IndexAny(rest, "/?"); i >= 0 {
		authority, tail = rest[:i], rest[i:]
	}
	userinfo, hosts := "", authority
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		userinfo, hosts = authority[:i+1], authority[i+1:]
	}
	// parse everything but the host list against a single placeholder host
	u, err := url.Parse(sentinelScheme + userinfo + "sentinel" + tail)
	if err != nil {
		return nil, err
	}

	o := &redis.FailoverOptions{}
	if u.User != nil {
		o.SentinelUsername = u.User.Username()
		o.SentinelPassword, _ = u.User.Password()
	}
	o.SentinelAddrs = sentinelAddresses(hosts)
	path := strings.FieldsFunc(u.Path, func(r rune) bool { return r == '/' })
	switch len(path) {
	case 0:
		return nil, fmt.Errorf("redis: master name is required")
	case 1:
		o.MasterName = path[0]
	case 2:
		o.MasterName = path[0]
		if o.DB, err = strconv.Atoi(path[1]); err != nil {
			return nil, fmt.Errorf("redis: invalid database number: %q", path[1])
		}
	default:
		return nil, fmt.Errorf("redis: invalid URL path: %s", u.Path)
	}
	return setupConnParams(u, o)
}

func sentinelAddresses(hosts string) []string {
	var addresses []string
	for _, urlHost := range strings.Split(hosts, ",") {
		host, port, err := net.SplitHostPort(urlHost)
		if err != nil {
			host = urlHost
		}
		if host == "" {
			host = "localhost"
		}
		if port == "" {
			port = "6379"
		}
		addresses = append(addresses, net.JoinHostPort(host, port))
	}
	return addresses
}

type queryOptions struct {
	q   url.Values
	err error
}

func (o *queryOptions) has(name string) bool {
	return len(o.q[name]) > 0
}

func (o *queryOptions) string(name string) string {
	vs := o.q[name]
	if len(vs) == 0 {
		return ""
	}
	delete(o.q, name) // enable detection of unknown parameters
	return vs[len(vs)-1]
}

func (o *queryOptions) int(name string) int {
	s := o.string(name)
	if s == "" {
		return 0
	}
	i, err := strconv.Atoi(s)
	if err != nil && o.err == nil {
		o.err = fmt.Errorf("redis: invalid %s number: %w", name, err)
	}
	return i
}

// duration accepts plain seconds or a Go duration; a non-positive number disables the timeout.
func (o *queryOptions) duration(name string) time.Duration {
	s := o.string(name)
	if s == "" {
		return 0
	}
	if i, err := strconv.Atoi(s); err == nil {
		if i <= 0 {
			return -1
		}
		return time.Duration(i) * time.Second
	}
	dur, err := time.ParseDuration(s)
	if err != nil && o.err == nil {
		o.err = fmt.Errorf("redis: invalid %s duration: %w", name, err)
	}
	return dur
}

func (o *queryOptions) remaining() []string {
	keys := make([]string, 0, len(o.q))
	for k := range o.q {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func setupConnParams(u *url.URL, o *redis.FailoverOptions) (*redis.FailoverOptions, error) {
	q := queryOptions{q: u.Query()}
	if tmp := q.string("db"); tmp != "" {
		db, err := strconv.Atoi(tmp)
		if err != nil {
			return nil, fmt.Errorf("redis: invalid database number: %w", err)
		}
		o.DB = db
	}
	o.ClientName = q.string("client_name")
	o.MaxRetries = q.int("max_retries")
	o.MinRetryBackoff = q.duration("min_retry_backoff")
	o.MaxRetryBackoff = q.duration("max_retry_backoff")
	o.DialTimeout = q.duration("dial_timeout")
	o.ReadTimeout = q.duration("read_timeout")
	o.WriteTimeout = q.duration("write_timeout")
	o.PoolSize = q.int("pool_size")
	o.PoolTimeout = q.duration("pool_timeout")
	o.MinIdleConns = q.int("min_idle_conns")
	o.MaxIdleConns = q.int("max_idle_conns")
	if q.has("conn_max_idle_time") {
		o.ConnMaxIdleTime = q.duration("conn_max_idle_time")
	}
	if q.has("conn_max_lifetime") {
		o.ConnMaxLifetime = q.duration("conn_max_lifetime")
	}
	if q.err != nil {
		return nil, q.err
	}
	if r := q.remaining(); len(r) > 0 {
		return nil, fmt.Errorf("redis: unexpected option: %s", strings.Join(r, ", "))
	}
	return o, nil
}
