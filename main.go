// Demo for the WOOT engine: a fleet of replicas wired through the
// in-process middleware, driven either by a randomised workload or by an
// interactive prompt, converging to the same text.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmcvetta/randutil"

	"github.com/cmsd2/woot/communication"
	"github.com/cmsd2/woot/middleware"
	"github.com/cmsd2/woot/replica"
)

var (
	numReplicas = flag.Int("replicas", 3, "number of sites")
	numEdits    = flag.Int("edits", 30, "random edits per site")
	interactive = flag.Bool("interactive", false, "drive the replicas from stdin instead")
	dotFile     = flag.String("dot", "", "write the final character graph as DOT to this file")
	verbose     = flag.Bool("verbose", false, "log every broadcast and delivery")
)

type site struct {
	r  *replica.Replica
	mw *middleware.Middleware
}

func main() {
	flag.Parse()

	channels := make(map[uint64]chan communication.Operation)
	for id := uint64(1); id <= uint64(*numReplicas); id++ {
		channels[id] = make(chan communication.Operation, 1024)
	}

	sites := make([]*site, *numReplicas)
	for i := range sites {
		id := uint64(i + 1)
		r, err := replica.New(id)
		if err != nil {
			log.Fatal(err)
		}
		mw := middleware.New(id, channels)
		mw.SetVerbose(*verbose)
		sites[i] = &site{r: r, mw: mw}
	}

	if *interactive {
		runInput(sites)
	} else {
		runWorkload(sites)
	}

	sync(sites)
	for _, s := range sites {
		fmt.Printf("site %d: %q\n", s.r.Site(), s.r.Value())
	}
	if converged(sites) {
		fmt.Println("converged")
	} else {
		log.Fatal("replicas diverged")
	}

	if *dotFile != "" {
		f, err := os.Create(*dotFile)
		if err != nil {
			log.Fatal(err)
		}
		defer f.Close()
		if err := sites[0].r.Sequence().WriteDOT(f); err != nil {
			log.Fatal(err)
		}
		fmt.Printf("character graph written to %s\n", *dotFile)
	}
}

// runWorkload lets every site perform weighted random edits, exchanging
// operations as it goes.
func runWorkload(sites []*site) {
	choices := []randutil.Choice{
		{Weight: 3, Item: "insert"},
		{Weight: 1, Item: "delete"},
	}
	for e := 0; e < *numEdits; e++ {
		for _, s := range sites {
			collect(s)

			choice, err := randutil.WeightedChoice(choices)
			if err != nil {
				log.Fatal(err)
			}
			textLen := len([]rune(s.r.Value()))

			var op communication.Operation
			switch {
			case choice.Item == "delete" && textLen > 0:
				pos, _ := randutil.IntRange(0, textLen)
				op, err = s.r.GenerateDelete(pos)
			default:
				pos, _ := randutil.IntRange(0, textLen+1)
				value := rune('a' + e%26)
				op, err = s.r.GenerateInsert(pos, value)
			}
			if err != nil {
				log.Fatal(err)
			}
			s.mw.Broadcast(op)
		}
	}
}

// runInput drives the replicas from stdin. Commands:
//
//	<site> i <pos> <char>   insert char at pos
//	<site> d <pos>          delete the character at pos
//	<site> value            print the site's text
//	sync                    exchange and drain everywhere
//
// An empty line exits.
func runInput(sites []*site) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			return
		}
		if text == "sync" {
			sync(sites)
			fmt.Println("synced")
			continue
		}

		fields := strings.Fields(text)
		id, err := strconv.Atoi(fields[0])
		if err != nil || id < 1 || id > len(sites) {
			fmt.Println("unknown site")
			continue
		}
		s := sites[id-1]
		collect(s)

		switch {
		case len(fields) == 2 && fields[1] == "value":
			fmt.Printf("%q\n", s.r.Value())
		case len(fields) == 4 && fields[1] == "i":
			pos, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Println("bad position")
				continue
			}
			op, err := s.r.GenerateInsert(pos, []rune(fields[3])[0])
			if err != nil {
				fmt.Println(err)
				continue
			}
			s.mw.Broadcast(op)
		case len(fields) == 3 && fields[1] == "d":
			pos, err := strconv.Atoi(fields[2])
			if err != nil {
				fmt.Println("bad position")
				continue
			}
			op, err := s.r.GenerateDelete(pos)
			if err != nil {
				fmt.Println(err)
				continue
			}
			s.mw.Broadcast(op)
		default:
			fmt.Println("usage: '<site> i <pos> <char>', '<site> d <pos>', '<site> value' or 'sync'")
		}
	}
}

// collect feeds everything the middleware has received into the replica.
func collect(s *site) {
	for _, op := range s.mw.Pending() {
		s.r.Receive(op)
	}
	s.r.Drain()
}

// sync keeps collecting until every site is quiescent: every broadcast
// operation delivered everywhere, inboxes and pools empty.
func sync(sites []*site) {
	for {
		var totalSent uint64
		for _, s := range sites {
			totalSent += s.mw.Sent()
		}
		settled := true
		for _, s := range sites {
			collect(s)
			if s.mw.Received() != totalSent-s.mw.Sent() {
				settled = false
			}
			if s.mw.Inbox() > 0 || s.r.PendingOps() > 0 {
				settled = false
			}
		}
		if settled {
			return
		}
		time.Sleep(time.Millisecond)
	}
}

func converged(sites []*site) bool {
	base := sites[0].r.Value()
	for _, s := range sites[1:] {
		if s.r.Value() != base {
			return false
		}
	}
	return true
}
