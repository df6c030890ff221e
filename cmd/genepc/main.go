package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"time"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/epc"
)

var (
	n      = flag.Int("n", 10, "number of EPCs to generate")
	prefix = flag.String("prefix", "", "shared hex prefix for compressible batches")
	seed   = flag.Int64("seed", 0, "random seed, 0 for time-based")
)

func main() {
	flag.Parse()

	s := *seed
	if s == 0 {
		s = time.Now().UnixNano()
	}
	r := rand.New(rand.NewSource(s))

	var ids []epc.Identifier
	if *prefix != "" {
		var err error
		ids, err = epc.RandomWithPrefix(r, *prefix, *n)
		if err != nil {
			log.Fatal(err)
		}
	} else {
		ids = epc.Random(r, *n)
	}

	for _, id := range ids {
		fmt.Println(id)
	}
}
