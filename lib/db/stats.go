package db

import (
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/rcrowley/go-metrics"
)

// process-wide metrics
var (
	openDBs       atomic.Int64
	flushDuration = vm.NewHistogram(`ekv_db_flush_duration_seconds`)
	walBytesTotal = vm.NewCounter(`ekv_db_wal_bytes_total`)
)

func init() {
	vm.NewGauge(`ekv_db_open`, func() float64 {
		return float64(openDBs.Load())
	})
}

// stats holds the per-database counters. The registry can be exported with
// any go-metrics reporter through DB.Metrics.
type stats struct {
	registry metrics.Registry
	puts     metrics.Counter
	deletes  metrics.Counter
	gets     metrics.Counter
	hits     metrics.Counter
	walBytes metrics.Counter
	replayed metrics.Counter
	flushes  metrics.Timer
}

func newStats() *stats {
	r := metrics.NewRegistry()
	return &stats{
		registry: r,
		puts:     metrics.GetOrRegisterCounter("puts", r),
		deletes:  metrics.GetOrRegisterCounter("deletes", r),
		gets:     metrics.GetOrRegisterCounter("gets", r),
		hits:     metrics.GetOrRegisterCounter("hits", r),
		walBytes: metrics.GetOrRegisterCounter("wal.bytes", r),
		replayed: metrics.GetOrRegisterCounter("wal.replayed", r),
		flushes:  metrics.GetOrRegisterTimer("flushes", r),
	}
}

func (s *stats) logged(n int) {
	s.walBytes.Inc(int64(n))
	walBytesTotal.Add(n)
}

func (s *stats) flushed(start time.Time) {
	s.flushes.UpdateSince(start)
	flushDuration.UpdateDuration(start)
}

// Stats is a snapshot of the statistics of a database.
type Stats struct {
	Keys      int           // Number of live keys
	LastSeq   uint64        // Sequence number of the last write
	TableSeq  uint64        // Sequence number covered by the table file
	WALSize   int64         // Size of the current log in bytes
	Puts      int64         // Puts since open
	Deletes   int64         // Deletes since open
	Gets      int64         // Gets since open
	Hits      int64         // Gets that found a value
	WALBytes  int64         // Bytes logged since open
	Replayed  int64         // Log records applied during recovery
	Flushes   int64         // Table rewrites since open
	FlushMean time.Duration // Mean duration of a table rewrite
}

// String returns a formatted string representation of the statistics
func (s Stats) String() string {
	var sb strings.Builder

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addField("Keys", fmt.Sprintf("%d", s.Keys))
	addField("Last Sequence", fmt.Sprintf("%d", s.LastSeq))
	addField("Table Sequence", fmt.Sprintf("%d", s.TableSeq))
	addField("WAL Size", fmt.Sprintf("%d bytes", s.WALSize))
	addField("Puts", fmt.Sprintf("%d", s.Puts))
	addField("Deletes", fmt.Sprintf("%d", s.Deletes))
	addField("Gets (hits)", fmt.Sprintf("%d (%d)", s.Gets, s.Hits))
	addField("WAL Bytes Written", fmt.Sprintf("%d bytes", s.WALBytes))
	addField("Replayed Records", fmt.Sprintf("%d", s.Replayed))
	addField("Flushes", fmt.Sprintf("%d (mean %s)", s.Flushes, s.FlushMean))

	return sb.String()
}

// OpenDBs returns the number of databases open in this process.
func OpenDBs() int64 {
	return openDBs.Load()
}
