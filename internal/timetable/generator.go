package timetable

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// lessonNamespace seeds the name-based ids of generated lessons.
var lessonNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/noah-isme/sma-timetable/lessons"))

// GeneratedLessonID is the deterministic id of a lesson produced by Generate.
func GeneratedLessonID(classID string, day Weekday, start Clock) string {
	return uuid.NewSHA1(lessonNamespace, []byte(fmt.Sprintf("%s|%d|%s", classID, day, start))).String()
}

// QuotaShortfall is a class/subject pair left below its weekly requirement.
type QuotaShortfall struct {
	ClassID   string `json:"classId"`
	SubjectID string `json:"subjectId"`
	Required  int    `json:"required"`
	Scheduled int    `json:"scheduled"`
}

// Missing returns the number of sessions still to place.
func (q QuotaShortfall) Missing() int {
	return q.Required - q.Scheduled
}

// GenerationStats summarises one Generate run.
type GenerationStats struct {
	Classes       int           `json:"classes"`
	SlotsVisited  int           `json:"slotsVisited"`
	LessonsPlaced int           `json:"lessonsPlaced"`
	Backtracks    int           `json:"backtracks"`
	Interrupted   bool          `json:"interrupted"`
	Duration      time.Duration `json:"duration"`
}

// GenerationResult is the outcome of Generate. Lessons is the full lesson set after the run.
type GenerationResult struct {
	Lessons    []Lesson
	Shortfalls []QuotaShortfall
	Stats      GenerationStats
}

// Generate fills the grid for the given classes, or for every class when none are named. Lessons of
// the regenerated classes are discarded first; lessons of other classes stay and keep occupying their
// teachers and rooms. The run never fails on infeasibility: unmet quotas come back as shortfalls.
// Cancelling ctx stops the outer loop early and returns what has been committed.
func (s *Scheduler) Generate(ctx context.Context, classIDs ...string) (GenerationResult, error) {
	started := time.Now()
	classes, err := s.classOrder(classIDs)
	if err != nil {
		return GenerationResult{}, err
	}

	if len(classIDs) == 0 {
		s.lessons = NewLessonSet()
	} else {
		for _, class := range classes {
			s.lessons.removeClass(class.ID)
		}
	}
	s.recount()

	stats := GenerationStats{Classes: len(classes)}
	slots := s.grid.Slots()

outer:
	for _, class := range classes {
		for _, slot := range slots {
			if ctx.Err() != nil {
				stats.Interrupted = true
				break outer
			}
			stats.SlotsVisited++
			if s.placeNext(class.ID, slot) {
				stats.LessonsPlaced++
			}
		}
		if s.opts.MaxBacktracks > 0 {
			stats.Backtracks += s.repairClass(ctx, class.ID, slots)
		}
	}

	ids := make([]string, 0, len(classes))
	for _, class := range classes {
		ids = append(ids, class.ID)
	}
	stats.Duration = time.Since(started)
	return GenerationResult{
		Lessons:    s.lessons.All(),
		Shortfalls: s.QuotaShortfalls(ids...),
		Stats:      stats,
	}, nil
}

// placeNext commits the least-slack placeable subject at the slot.
func (s *Scheduler) placeNext(classID string, slot Slot) bool {
	candidates := s.FindPlaceableSubjects(classID, slot)
	if len(candidates) == 0 {
		return false
	}
	best := candidates[0]
	bestSlack := s.slack(classID, best.ID)
	for _, subject := range candidates[1:] {
		if slack := s.slack(classID, subject.ID); slack < bestSlack {
			best, bestSlack = subject, slack
		}
	}
	_, err := s.placeGenerated(classID, best.ID, slot)
	return err == nil
}

func (s *Scheduler) slack(classID, subjectID string) int {
	return s.RequiredHours(classID, subjectID) - s.ScheduledUnits(classID, subjectID)
}

func (s *Scheduler) placeGenerated(classID, subjectID string, slot Slot) (Lesson, error) {
	teacher, roomID, rejection := s.resolve(subjectID, classID, slot.Day, slot.Interval(), "")
	if rejection != nil {
		return Lesson{}, rejection
	}
	lesson := Lesson{
		ID:        GeneratedLessonID(classID, slot.Day, slot.Start),
		Day:       slot.Day,
		Start:     slot.Start,
		End:       slot.End,
		SubjectID: subjectID,
		ClassID:   classID,
		TeacherID: teacher.ID,
		RoomID:    roomID,
	}
	s.commitAdd(lesson)
	return lesson, nil
}

// classOrder sorts classes by ascending total required hours; equal totals keep catalog order.
func (s *Scheduler) classOrder(classIDs []string) ([]Class, error) {
	var classes []Class
	if len(classIDs) == 0 {
		classes = append(classes, s.catalog.Classes...)
	} else {
		wanted := make(map[string]bool, len(classIDs))
		for _, id := range classIDs {
			if _, ok := s.classes[id]; !ok {
				return nil, unknown("class", id)
			}
			wanted[id] = true
		}
		for _, class := range s.catalog.Classes {
			if wanted[class.ID] {
				classes = append(classes, class)
			}
		}
	}
	totals := make(map[string]int, len(classes))
	for _, class := range classes {
		totals[class.ID] = s.TotalRequiredHours(class.ID)
	}
	sort.SliceStable(classes, func(i, j int) bool {
		return totals[classes[i].ID] < totals[classes[j].ID]
	})
	return classes, nil
}

// QuotaShortfalls lists the unmet class/subject quotas, classes and subjects in catalog order.
// With no class ids every class is reported.
func (s *Scheduler) QuotaShortfalls(classIDs ...string) []QuotaShortfall {
	wanted := make(map[string]bool, len(classIDs))
	for _, id := range classIDs {
		wanted[id] = true
	}
	var shortfalls []QuotaShortfall
	for _, class := range s.catalog.Classes {
		if len(wanted) > 0 && !wanted[class.ID] {
			continue
		}
		for _, subject := range s.catalog.Subjects {
			required := s.RequiredHours(class.ID, subject.ID)
			scheduled := s.ScheduledUnits(class.ID, subject.ID)
			if scheduled < required {
				shortfalls = append(shortfalls, QuotaShortfall{
					ClassID:   class.ID,
					SubjectID: subject.ID,
					Required:  required,
					Scheduled: scheduled,
				})
			}
		}
	}
	return shortfalls
}

// repairClass tries bounded swaps for a class left below quota: a committed lesson is lifted, the
// unmet subject takes its slot and the lifted subject moves to another free slot. A swap that cannot
// complete is rolled back. It returns the number of swaps attempted.
func (s *Scheduler) repairClass(ctx context.Context, classID string, slots []Slot) int {
	attempts := 0
	for attempts < s.opts.MaxBacktracks && ctx.Err() == nil {
		progressed := false
		for _, shortfall := range s.QuotaShortfalls(classID) {
			committed := s.classLessons(classID)
			for i := len(committed) - 1; i >= 0 && attempts < s.opts.MaxBacktracks; i-- {
				victim := committed[i]
				if victim.SubjectID == shortfall.SubjectID || s.grid.Units(victim.Interval()) != 1 {
					continue
				}
				attempts++
				if s.trySwap(victim, shortfall.SubjectID, slots) {
					progressed = true
					break
				}
			}
			if progressed || attempts >= s.opts.MaxBacktracks {
				break
			}
		}
		if !progressed {
			break
		}
	}
	return attempts
}

func (s *Scheduler) classLessons(classID string) []Lesson {
	var out []Lesson
	for _, lesson := range s.lessons.lessons {
		if lesson.ClassID == classID {
			out = append(out, lesson)
		}
	}
	return out
}

func (s *Scheduler) trySwap(victim Lesson, subjectID string, slots []Slot) bool {
	slot, ok := s.grid.SlotAt(victim.Day, victim.Start)
	if !ok {
		return false
	}
	s.commitRemove(victim.ID)

	if !s.placeable(victim.ClassID, subjectID, slot) {
		s.commitAdd(victim)
		return false
	}
	placed, err := s.placeGenerated(victim.ClassID, subjectID, slot)
	if err != nil {
		s.commitAdd(victim)
		return false
	}
	for _, candidate := range slots {
		if candidate.Day == slot.Day && candidate.Start == slot.Start {
			continue
		}
		if !s.placeable(victim.ClassID, victim.SubjectID, candidate) {
			continue
		}
		if _, err := s.placeGenerated(victim.ClassID, victim.SubjectID, candidate); err == nil {
			return true
		}
	}
	s.commitRemove(placed.ID)
	s.commitAdd(victim)
	return false
}
