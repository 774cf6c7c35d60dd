package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/noah-isme/sma-timetable/internal/dto"
)

type envelope struct {
	Data  *dto.TimetableDetailResponse `json:"data"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

type cellKey struct {
	ClassID string
	Day     string
	Start   string
}

type cell struct {
	SubjectID string
	TeacherID string
	RoomID    string
	End       string
}

type change struct {
	Key    cellKey
	Before *cell
	After  *cell
}

func main() {
	var (
		base    string
		from    string
		to      string
		timeout time.Duration
		strict  bool
	)

	flag.StringVar(&base, "base", "http://localhost:8080/api/v1", "Timetable API base URL")
	flag.StringVar(&from, "from", "", "ID of the older timetable version")
	flag.StringVar(&to, "to", "", "ID of the newer timetable version")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.BoolVar(&strict, "strict", false, "Exit non-zero when the versions differ")
	flag.Parse()

	if from == "" || to == "" {
		log.Fatal("both -from and -to are required")
	}

	client := &http.Client{Timeout: timeout}
	before, err := fetchTimetable(client, base, from)
	if err != nil {
		log.Fatalf("failed to load %s: %v", from, err)
	}
	after, err := fetchTimetable(client, base, to)
	if err != nil {
		log.Fatalf("failed to load %s: %v", to, err)
	}

	changes := diffLessons(before.Lessons, after.Lessons)
	printReport(before, after, changes)

	if strict && len(changes) > 0 {
		os.Exit(1)
	}
}

func fetchTimetable(client *http.Client, base, id string) (*dto.TimetableDetailResponse, error) {
	if client == nil {
		return nil, errors.New("nil client")
	}
	url := strings.TrimRight(base, "/") + "/timetables/" + id
	resp, err := client.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode body: %w", err)
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s: %s", env.Error.Code, env.Error.Message)
	}
	if resp.StatusCode != http.StatusOK || env.Data == nil {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return env.Data, nil
}

func indexLessons(lessons []dto.LessonView) map[cellKey]cell {
	index := make(map[cellKey]cell, len(lessons))
	for _, l := range lessons {
		c := cell{SubjectID: l.SubjectID, TeacherID: l.TeacherID, End: l.End}
		if l.RoomID != nil {
			c.RoomID = *l.RoomID
		}
		index[cellKey{ClassID: l.ClassID, Day: l.Day, Start: l.Start}] = c
	}
	return index
}

// diffLessons compares two versions cell by cell, keyed on class and start slot.
func diffLessons(before, after []dto.LessonView) []change {
	old := indexLessons(before)
	updated := indexLessons(after)

	var changes []change
	for key, b := range old {
		b := b
		a, ok := updated[key]
		if !ok {
			changes = append(changes, change{Key: key, Before: &b})
			continue
		}
		if a != b {
			a := a
			changes = append(changes, change{Key: key, Before: &b, After: &a})
		}
	}
	for key, a := range updated {
		if _, ok := old[key]; !ok {
			a := a
			changes = append(changes, change{Key: key, After: &a})
		}
	}

	sort.Slice(changes, func(i, j int) bool {
		ki, kj := changes[i].Key, changes[j].Key
		if ki.ClassID != kj.ClassID {
			return ki.ClassID < kj.ClassID
		}
		if ki.Day != kj.Day {
			return ki.Day < kj.Day
		}
		return ki.Start < kj.Start
	})
	return changes
}

func describe(c *cell) string {
	if c == nil {
		return "-"
	}
	room := c.RoomID
	if room == "" {
		room = "no room"
	}
	return fmt.Sprintf("%s with %s in %s until %s", c.SubjectID, c.TeacherID, room, c.End)
}

func printReport(before, after *dto.TimetableDetailResponse, changes []change) {
	fmt.Println("Timetable Diff Report")
	fmt.Println("=====================")
	fmt.Printf("From: %s v%d (%s), %d lessons\n", before.Timetable.ID, before.Timetable.Version, before.Timetable.Status, len(before.Lessons))
	fmt.Printf("To:   %s v%d (%s), %d lessons\n", after.Timetable.ID, after.Timetable.Version, after.Timetable.Status, len(after.Lessons))
	for _, ch := range changes {
		status := "CHANGED"
		switch {
		case ch.Before == nil:
			status = "ADDED"
		case ch.After == nil:
			status = "REMOVED"
		}
		fmt.Printf("[%s] %s %s %s\n", status, ch.Key.ClassID, ch.Key.Day, ch.Key.Start)
		fmt.Printf("  Before: %s\n", describe(ch.Before))
		fmt.Printf("  After:  %s\n", describe(ch.After))
	}
	fmt.Printf("Changed cells: %d\n", len(changes))
}
