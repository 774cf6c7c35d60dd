package timetable

// AddLesson places one session of the subject for the class at the slot starting at start. Teacher and
// room are resolved the same way generation resolves them. On rejection the lesson set is unchanged.
func (s *Scheduler) AddLesson(subjectID, classID string, day Weekday, start Clock) (Lesson, error) {
	if _, ok := s.Subject(subjectID); !ok {
		return Lesson{}, unknown("subject", subjectID)
	}
	if _, ok := s.Class(classID); !ok {
		return Lesson{}, unknown("class", classID)
	}
	slot, ok := s.grid.SlotAt(day, start)
	if !ok {
		return Lesson{}, reject(ReasonOutOfGrid, "%s %s is not a slot of the grid", day, start)
	}
	if verdict := s.CanPlace(Placement{Day: day, Start: slot.Start, End: slot.End, ClassID: classID}); !verdict.OK {
		return Lesson{}, verdict.Err()
	}
	if s.opts.StrictQuota && s.ScheduledUnits(classID, subjectID) >= s.RequiredHours(classID, subjectID) {
		return Lesson{}, reject(ReasonQuotaExceeded, "class %s already has %d of %d sessions of subject %s",
			classID, s.ScheduledUnits(classID, subjectID), s.RequiredHours(classID, subjectID), subjectID)
	}
	teacher, roomID, rejection := s.resolve(subjectID, classID, day, slot.Interval(), "")
	if rejection != nil {
		return Lesson{}, rejection
	}

	lesson := Lesson{
		ID:        s.opts.NewID(),
		Day:       day,
		Start:     slot.Start,
		End:       slot.End,
		SubjectID: subjectID,
		ClassID:   classID,
		TeacherID: teacher.ID,
		RoomID:    roomID,
	}
	if verdict := s.CanPlace(placementOf(lesson, "")); !verdict.OK {
		return Lesson{}, verdict.Err()
	}
	s.commitAdd(lesson)
	return lesson, nil
}

// MoveLesson moves a lesson to a new start, keeping its duration and resources. The target is checked
// for teacher, class, room and teacher availability, ignoring the lesson itself.
func (s *Scheduler) MoveLesson(id string, day Weekday, start Clock) (Lesson, error) {
	lesson, ok := s.lessons.Get(id)
	if !ok {
		return Lesson{}, lessonNotFound(id)
	}
	span, ok := s.grid.Span(day, start, s.grid.Units(lesson.Interval()))
	if !ok {
		return Lesson{}, reject(ReasonOutOfGrid, "lesson %s does not fit the grid at %s %s", id, day, start)
	}
	moved := lesson
	moved.Day = day
	moved.Start = span.Start
	moved.End = span.End
	if verdict := s.CanPlace(placementOf(moved, id)); !verdict.OK {
		return Lesson{}, verdict.Err()
	}
	s.commitReplace(moved)
	return moved, nil
}

// DeleteLesson removes a lesson unconditionally.
func (s *Scheduler) DeleteLesson(id string) (Lesson, error) {
	removed, ok := s.commitRemove(id)
	if !ok {
		return Lesson{}, lessonNotFound(id)
	}
	return removed, nil
}

// ChangeRoom assigns another room to a lesson, or clears it when roomID is empty. A subject pinned to a
// room or a room category only accepts that room or category.
func (s *Scheduler) ChangeRoom(id, roomID string) (Lesson, error) {
	lesson, ok := s.lessons.Get(id)
	if !ok {
		return Lesson{}, lessonNotFound(id)
	}
	rule := s.SubjectRequirement(lesson.SubjectID)
	if roomID == "" {
		if s.opts.RequireRoom {
			return Lesson{}, reject(ReasonRoomRequiredUnavailable, "lesson %s must keep a room", id)
		}
	} else {
		room, ok := s.Room(roomID)
		if !ok {
			return Lesson{}, unknown("room", roomID)
		}
		if rule.RoomID != "" && rule.RoomID != roomID {
			return Lesson{}, reject(ReasonRoomRequiredUnavailable, "subject %s must be taught in room %s", lesson.SubjectID, rule.RoomID)
		}
		if rule.RoomCategory != "" && room.Category != rule.RoomCategory {
			return Lesson{}, reject(ReasonRoomRequiredUnavailable, "subject %s needs a %s room, %s is %q", lesson.SubjectID, rule.RoomCategory, roomID, room.Category)
		}
		verdict := s.CanPlace(Placement{Day: lesson.Day, Start: lesson.Start, End: lesson.End, RoomID: roomID, IgnoreLessonID: id})
		if !verdict.OK {
			return Lesson{}, verdict.Err()
		}
	}
	changed := lesson
	changed.RoomID = roomID
	s.commitReplace(changed)
	return changed, nil
}

// ExtendLesson lengthens a lesson by one session. The session right after it must exist on the grid
// and be free for the lesson's teacher, class and room.
func (s *Scheduler) ExtendLesson(id string) (Lesson, error) {
	lesson, ok := s.lessons.Get(id)
	if !ok {
		return Lesson{}, lessonNotFound(id)
	}
	next, ok := s.grid.SlotAfter(lesson.Day, lesson.End)
	if !ok {
		return Lesson{}, reject(ReasonOutOfGrid, "no session follows lesson %s on %s at %s", id, lesson.Day, lesson.End)
	}
	if s.opts.StrictQuota && s.ScheduledUnits(lesson.ClassID, lesson.SubjectID) >= s.RequiredHours(lesson.ClassID, lesson.SubjectID) {
		return Lesson{}, reject(ReasonQuotaExceeded, "class %s already has %d of %d sessions of subject %s",
			lesson.ClassID, s.ScheduledUnits(lesson.ClassID, lesson.SubjectID), s.RequiredHours(lesson.ClassID, lesson.SubjectID), lesson.SubjectID)
	}
	extra := lesson
	extra.Start = next.Start
	extra.End = next.End
	if verdict := s.CanPlace(placementOf(extra, id)); !verdict.OK {
		return Lesson{}, verdict.Err()
	}
	extended := lesson
	extended.End = next.End
	s.commitReplace(extended)
	return extended, nil
}

func placementOf(lesson Lesson, ignore string) Placement {
	return Placement{
		Day:            lesson.Day,
		Start:          lesson.Start,
		End:            lesson.End,
		TeacherID:      lesson.TeacherID,
		ClassID:        lesson.ClassID,
		RoomID:         lesson.RoomID,
		IgnoreLessonID: ignore,
	}
}

func lessonNotFound(id string) *Rejection {
	return &Rejection{Reason: ReasonLessonNotFound, Message: "lesson " + id + " not found", LessonID: id}
}
