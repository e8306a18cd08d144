package main

import (
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/csvquery/extsort"
)

type record struct {
	key   int64
	value int64
}

func main() {
	count := 20_000_000 // default 20M records
	if len(os.Args) >= 2 {
		fmt.Sscanf(os.Args[1], "%d", &count)
	}

	fmt.Printf("Generating %d records...\n", count)
	rng := rand.New(rand.NewSource(123))

	i := 0
	source := func() (record, bool) {
		if i >= count {
			return record{}, false
		}
		i++
		return record{key: rng.Int63n(int64(count) * 4), value: int64(i)}, true
	}

	cmp := extsort.ByKey(func(r *record) int64 { return r.key })
	cfg := extsort.Config{
		SortBufferSizeBytes: 64 * 1024 * 1024,
		CompressWith:        extsort.CodecLZ4,
	}

	fmt.Println("Starting external sort...")
	start := time.Now()

	result, err := extsort.SortParallel(source, cmp, cfg)
	if err != nil {
		panic(err)
	}
	defer result.Close()

	var prev int64
	seen := 0
	for {
		r, ok := result.Next()
		if !ok {
			break
		}
		if seen > 0 && r.key < prev {
			panic(fmt.Sprintf("out of order at record %d: %d < %d", seen, r.key, prev))
		}
		prev = r.key
		seen++
	}
	elapsed := time.Since(start)

	if seen != count {
		panic(fmt.Sprintf("expected %d records, got %d", count, seen))
	}

	bytesTotal := float64(count) * float64(16)
	mbPerSec := bytesTotal / 1024 / 1024 / elapsed.Seconds()
	fmt.Printf("\n--------------------------------------------------\n")
	fmt.Printf("Records:    %d\n", seen)
	fmt.Printf("Throughput: %.2f MB/s\n", mbPerSec)
	fmt.Printf("Time:       %v\n", elapsed)
	fmt.Printf("--------------------------------------------------\n")
}
