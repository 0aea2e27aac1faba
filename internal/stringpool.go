package internal

import (
	"strings"
	"sync"
)

// builderPool recycles *strings.Builder to minimise GC pressure on the
// query-rendering fast path. Borrow with GetBuilder, return with
// PutBuilder.
//
//	sb := internal.GetBuilder()
//	defer internal.PutBuilder(sb)
//	sb.WriteString(section)
var builderPool = sync.Pool{
	New: func() any { return new(strings.Builder) },
}

// GetBuilder fetches a cleared *strings.Builder.
func GetBuilder() *strings.Builder {
	b := builderPool.Get().(*strings.Builder)
	b.Reset()
	return b
}

// PutBuilder returns a Builder to the pool. The caller MUST discard its
// reference afterwards — using it again is a data race.
func PutBuilder(b *strings.Builder) { builderPool.Put(b) }
