package shard

import (
	"crypto/md5"
	"encoding/binary"
)

const DefaultCount = 4

// Router maps order ids onto a fixed set of shard indexes. The index is
// stored on the order as a seam for future physical routing; reads and
// writes still target a single backing store.
type Router struct {
	count int
}

func NewRouter(count int) *Router {
	if count <= 0 {
		count = DefaultCount
	}
	return &Router{count: count}
}

func (r *Router) Count() int {
	return r.count
}

// ShardOf hashes the order id and folds it into [0, count). The first four
// bytes of the md5 digest are read big-endian, which matches interpreting
// the first eight hex characters of the digest as an integer.
func (r *Router) ShardOf(orderID string) int {
	sum := md5.Sum([]byte(orderID))
	return int(binary.BigEndian.Uint32(sum[:4]) % uint32(r.count))
}
