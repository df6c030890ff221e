package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"time"

	kitlog "github.com/go-kit/kit/log"

	"github.com/Hamza-Khrissi/Testing-LoRaWAN/airtime"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/ingest"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/pipeline"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/radio"
	"github.com/Hamza-Khrissi/Testing-LoRaWAN/web"
)

var (
	epcloraURI   = flag.String("epcloraURI", "http://localhost:9201", "epclorad API URI")
	tagsPath     = flag.String("file", "", "tag file, one 24 hex character EPC per line (.txt or .csv)")
	spreadFactor = flag.Int("sf", 12, "spread factor (7-12)")
	bandwidthKHz = flag.Int("bw", 125, "bandwidth in kHz (125/250/500)")
	codingRate   = flag.Int("cr", 1, "coding rate (1-4 for 4/5-4/8)")
	minMatch     = flag.Int("minMatch", 6, "clustering similarity threshold")
	local        = flag.Bool("local", false, "run the pipeline in-process instead of posting to the daemon")
	transmit     = flag.Bool("transmit", false, "with -local, send the frames through the simulated driver")
	dutyCycle    = flag.Float64("dutyCycle", 0.01, "duty-cycle fraction used when pacing simulated transmissions")
)

func main() {
	flag.Parse()

	if *tagsPath == "" {
		log.Fatal("missing -file")
	}

	tags, err := ingest.ReadTagFile(*tagsPath)
	if err != nil {
		log.Fatal(err)
	}

	if *local {
		runLocal(tags)
		return
	}

	req := web.RunRequest{
		Tags:         tags,
		SpreadFactor: *spreadFactor,
		BandwidthKHz: *bandwidthKHz,
		CodingRate:   *codingRate,
		MinMatch:     *minMatch,
	}
	body, err := json.Marshal(req)
	if err != nil {
		log.Fatal(err)
	}

	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Post(*epcloraURI+"/api/runs", "application/json", bytes.NewReader(body))
	if err != nil {
		log.Fatal(err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		log.Fatalf("daemon returned %s: %s", resp.Status, b)
	}

	var out bytes.Buffer
	if err := json.Indent(&out, b, "", "  "); err != nil {
		log.Fatal(err)
	}
	fmt.Println(out.String())
}

func runLocal(tags []string) {
	logger := kitlog.NewLogfmtLogger(kitlog.NewSyncWriter(os.Stderr))

	params := airtime.Params{
		SpreadFactor: *spreadFactor,
		BandwidthKHz: *bandwidthKHz,
		CodingRate:   *codingRate,
	}
	proc, err := pipeline.New(logger, params, pipeline.Config{MinMatch: *minMatch})
	if err != nil {
		log.Fatal(err)
	}

	rep, err := proc.Process(tags)
	if err != nil {
		log.Fatal(err)
	}

	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(b))

	if !*transmit {
		return
	}

	payloads := make([][]byte, len(rep.Frames))
	for i, f := range rep.Frames {
		payloads[i] = f.Payload
	}
	drv := radio.NewSim(logger, params)
	if err := radio.SendBatch(context.Background(), drv, radio.Pacer{DutyCycle: *dutyCycle}, params, payloads); err != nil {
		log.Fatal(err)
	}
	fmt.Fprintf(os.Stderr, "transmitted %d frames\n", drv.Sent)
}
