package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/atomparty/atomparty/orbit"
	"github.com/dustin/go-humanize"
	"github.com/jamiealquiza/tachymeter"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"
)

const iterationsKey = "iterations"

func main() {
	cmd := &cli.Command{
		Name:  "benchmark",
		Usage: "Benchmark the orbit atom store",
		Commands: []*cli.Command{
			{
				Name:  "propagate",
				Usage: "Write latency across w*h dependency grids",
				Flags: []cli.Flag{
					&cli.UintFlag{
						Name:  iterationsKey,
						Usage: "Writes per grid",
						Value: 100,
					},
				},
				Action: benchmarkPropagate,
			},
			{
				Name:   "layers",
				Usage:  "Update rate across layered dependency graphs",
				Action: benchmarkLayers,
			},
		},
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

var (
	ww = []int{1, 10, 100, 1_000}
	hh = []int{1, 10, 100}
)

func benchmarkPropagate(ctx context.Context, cmd *cli.Command) error {
	iters := int(cmd.Uint(iterationsKey))
	log.Printf("propagate: %d writes per grid", iters)

	tbl := table.NewWriter()
	tbl.SetTitle("Orbit Atoms")
	tbl.SetOutputMirror(os.Stdout)
	tbl.AppendHeader(table.Row{"benchmark", "avg", "min", "p75", "p99", "max"})

	for _, w := range ww {
		for _, h := range hh {
			tach := tachymeter.New(&tachymeter.Config{Size: iters})

			s := orbit.New()
			src := orbit.Primitive("src", 1)
			for i := 0; i < w; i++ {
				last := src
				for j := 0; j < h; j++ {
					prev := last
					last = orbit.Derived("link", func(get orbit.Getter) (any, error) {
						v, err := get(prev)
						if err != nil {
							return nil, err
						}
						return v.(int) + 1, nil
					})
				}

				leaf := last
				s.Subscribe(leaf, func() {
					s.Read(leaf)
				})
			}

			for i := 0; i < iters; i++ {
				start := time.Now()
				s.Write(src, i+2)
				tach.AddTime(time.Since(start))
			}

			calc := tach.Calc()
			tbl.AppendRows([]table.Row{
				{
					fmt.Sprintf("propagate: %d * %d", w, h),
					calc.Time.Avg,
					calc.Time.Min,
					calc.Time.P75,
					calc.Time.P99,
					calc.Time.Max,
				},
			})
		}
	}

	tbl.Render()
	return nil
}

type layersConfig struct {
	name           string
	width          int
	totalLayers    int
	nSources       int
	staticFraction float64
	readFraction   float64
	iterations     int64
}

func benchmarkLayers(ctx context.Context, cmd *cli.Command) error {
	log.Print("Starting layered graph benchmark, please wait...")
	defer log.Print("Finished layered graph benchmark")

	cfgs := []layersConfig{
		{
			name:           "simple component",
			width:          10,
			totalLayers:    5,
			nSources:       2,
			staticFraction: 1,
			readFraction:   0.2,
			iterations:     60_000,
		},
		{
			name:           "dynamic component",
			width:          10,
			totalLayers:    10,
			nSources:       6,
			staticFraction: 0.75,
			readFraction:   0.2,
			iterations:     5_000,
		},
		{
			name:           "wide dense",
			width:          1000,
			totalLayers:    5,
			nSources:       25,
			staticFraction: 1,
			readFraction:   1,
			iterations:     500,
		},
		{
			name:           "deep",
			width:          5,
			totalLayers:    500,
			nSources:       3,
			staticFraction: 1,
			readFraction:   1,
			iterations:     500,
		},
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{
		"store", "size", "nSources", "read%", "static%",
		"nTimes", "test", "time", "updateRate",
	})

	const repeats = 3
	for _, cfg := range cfgs {
		log.Printf("Running '%s' config", cfg.name)
		counter := new(int64)
		s := orbit.New()
		graph := makeLayeredGraph(cfg, counter)

		best := time.Hour
		var bestCount int64
		for i := 0; i < repeats; i++ {
			*counter = 0
			start := time.Now()
			runLayeredGraph(s, graph, cfg)
			took := time.Since(start)
			if took < best {
				best = took
				bestCount = *counter
			}
		}

		updateRate := float64(bestCount) / (float64(best) / float64(time.Millisecond))
		tbl.Append([]string{
			"orbit",
			fmt.Sprintf("%dx%d", cfg.width, cfg.totalLayers),
			fmt.Sprint(cfg.nSources),
			fmt.Sprint(cfg.readFraction),
			fmt.Sprint(cfg.staticFraction),
			humanize.Comma(cfg.iterations),
			cfg.name,
			fmt.Sprint(best),
			humanize.Comma(int64(updateRate)),
		})
	}
	tbl.Render()
	return nil
}

type layeredGraph struct {
	sources []*orbit.Atom
	layers  [][]*orbit.Atom
}

func makeLayeredGraph(cfg layersConfig, counter *int64) *layeredGraph {
	random := rand.New(rand.NewSource(0))

	sources := make([]*orbit.Atom, cfg.width)
	for i := range sources {
		sources[i] = orbit.Primitive(fmt.Sprintf("source-%d", i), i)
	}

	graph := &layeredGraph{sources: sources}
	prevRow := sources
	for l := 0; l < cfg.totalLayers-1; l++ {
		row := make([]*orbit.Atom, len(prevRow))
		for myDex := range prevRow {
			mySources := make([]*orbit.Atom, 0, cfg.nSources)
			for sourceDex := 0; sourceDex < cfg.nSources; sourceDex++ {
				mySources = append(mySources, prevRow[(myDex+sourceDex)%len(prevRow)])
			}

			if random.Float64() < cfg.staticFraction {
				// static node, reads every source on every pass
				row[myDex] = orbit.Derived("static", func(get orbit.Getter) (any, error) {
					*counter++
					sum := 0
					for _, source := range mySources {
						v, err := get(source)
						if err != nil {
							return nil, err
						}
						sum += v.(int)
					}
					return sum, nil
				})
			} else {
				// dynamic node, drops one tail source based on the head's value
				head := mySources[0]
				tail := mySources[1:]
				row[myDex] = orbit.Derived("dynamic", func(get orbit.Getter) (any, error) {
					*counter++
					v, err := get(head)
					if err != nil {
						return nil, err
					}
					sum := v.(int)
					shouldDrop := sum&0x1 > 0
					dropDex := sum % len(tail)
					for i, source := range tail {
						if shouldDrop && i == dropDex {
							continue
						}
						tv, err := get(source)
						if err != nil {
							return nil, err
						}
						sum += tv.(int)
					}
					return sum, nil
				})
			}
		}
		graph.layers = append(graph.layers, row)
		prevRow = row
	}

	return graph
}

func runLayeredGraph(s *orbit.Store, graph *layeredGraph, cfg layersConfig) int {
	random := rand.New(rand.NewSource(0))
	leaves := graph.layers[len(graph.layers)-1]
	skipCount := int(math.Round(float64(len(leaves)) * (1 - cfg.readFraction)))
	readLeaves := removeElems(leaves, skipCount, random)

	for i := 0; i < int(cfg.iterations); i++ {
		sourceDex := i % len(graph.sources)
		s.Write(graph.sources[sourceDex], i+sourceDex)

		for _, leaf := range readLeaves {
			s.Read(leaf)
		}
	}

	sum := 0
	for _, leaf := range readLeaves {
		v, err := s.Read(leaf)
		if err != nil {
			log.Fatal(err)
		}
		sum += v.(int)
	}
	return sum
}

func removeElems(src []*orbit.Atom, rmCount int, random *rand.Rand) []*orbit.Atom {
	out := make([]*orbit.Atom, len(src))
	copy(out, src)
	for i := 0; i < rmCount; i++ {
		rmDex := random.Intn(len(out))
		out[rmDex] = out[len(out)-1]
		out = out[:len(out)-1]
	}
	return out
}
