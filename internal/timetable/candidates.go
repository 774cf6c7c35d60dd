package timetable

// FindPlaceableSubjects lists, in catalog order, the subjects that may legally be placed for the class
// at the slot: quota not exhausted, time preference satisfied, and at least one free qualified teacher
// with a feasible room. Unknown classes and off-grid slots yield an empty result.
func (s *Scheduler) FindPlaceableSubjects(classID string, slot Slot) []Subject {
	if _, ok := s.classes[classID]; !ok {
		return nil
	}
	canonical, ok := s.grid.SlotAt(slot.Day, slot.Start)
	if !ok {
		return nil
	}
	var subjects []Subject
	for _, subject := range s.catalog.Subjects {
		if s.placeable(classID, subject.ID, canonical) {
			subjects = append(subjects, subject)
		}
	}
	return subjects
}

func (s *Scheduler) placeable(classID, subjectID string, slot Slot) bool {
	if s.ScheduledUnits(classID, subjectID) >= s.RequiredHours(classID, subjectID) {
		return false
	}
	if !s.timeAllows(subjectID, slot) {
		return false
	}
	_, _, rejection := s.resolve(subjectID, classID, slot.Day, slot.Interval(), "")
	return rejection == nil
}

func (s *Scheduler) timeAllows(subjectID string, slot Slot) bool {
	switch s.SubjectRequirement(subjectID).TimePreference {
	case PreferMorning:
		return s.grid.IsMorning(slot)
	case PreferAfternoon:
		return s.grid.IsAfternoon(slot)
	default:
		return true
	}
}

// resolve picks the teacher and room for a subject/class over an interval.
func (s *Scheduler) resolve(subjectID, classID string, day Weekday, iv Interval, ignore string) (Teacher, string, *Rejection) {
	teacher, rejection := s.resolveTeacher(subjectID, classID, day, iv, ignore)
	if rejection != nil {
		return Teacher{}, "", rejection
	}
	roomID, rejection := s.resolveRoom(subjectID, classID, day, iv, ignore)
	if rejection != nil {
		return Teacher{}, "", rejection
	}
	return teacher, roomID, nil
}

// resolveTeacher returns the first teacher in catalog order who teaches the subject, is assigned to the
// class and passes CanPlace.
func (s *Scheduler) resolveTeacher(subjectID, classID string, day Weekday, iv Interval, ignore string) (Teacher, *Rejection) {
	qualified := false
	var last Verdict
	for _, teacher := range s.catalog.Teachers {
		if !s.teacherQualified(teacher.ID, subjectID, classID) {
			continue
		}
		qualified = true
		verdict := s.CanPlace(Placement{
			Day:            day,
			Start:          iv.Start,
			End:            iv.End,
			TeacherID:      teacher.ID,
			ClassID:        classID,
			IgnoreLessonID: ignore,
		})
		if verdict.OK {
			return teacher, nil
		}
		if verdict.Reason == ReasonClassBusy {
			return Teacher{}, &Rejection{Reason: verdict.Reason, Message: verdict.Message, LessonID: verdict.LessonID}
		}
		last = verdict
	}
	if !qualified {
		return Teacher{}, reject(ReasonNoAvailableTeacher, "no teacher assigned to class %s teaches subject %s", classID, subjectID)
	}
	return Teacher{}, reject(ReasonNoAvailableTeacher, "no teacher free for subject %s on %s %s: %s", subjectID, day, iv, last.Message)
}

// resolveRoom returns the pinned room when free, else the first free room of the required category,
// else the first free room, else no room unless rooms are required.
func (s *Scheduler) resolveRoom(subjectID, classID string, day Weekday, iv Interval, ignore string) (string, *Rejection) {
	rule := s.SubjectRequirement(subjectID)
	if rule.RoomID != "" {
		if s.roomFree(rule.RoomID, day, iv, ignore) {
			return rule.RoomID, nil
		}
		return "", reject(ReasonRoomRequiredUnavailable, "required room %s is not free on %s %s", rule.RoomID, day, iv)
	}
	class, _ := s.Class(classID)
	for _, room := range s.catalog.Rooms {
		if rule.RoomCategory != "" && room.Category != rule.RoomCategory {
			continue
		}
		if !roomFits(room, class) {
			continue
		}
		if s.roomFree(room.ID, day, iv, ignore) {
			return room.ID, nil
		}
	}
	if rule.RoomCategory != "" {
		return "", reject(ReasonRoomRequiredUnavailable, "no free %s room on %s %s", rule.RoomCategory, day, iv)
	}
	if s.opts.RequireRoom {
		return "", reject(ReasonRoomRequiredUnavailable, "no free room on %s %s", day, iv)
	}
	return "", nil
}

func (s *Scheduler) roomFree(roomID string, day Weekday, iv Interval, ignore string) bool {
	return s.CanPlace(Placement{
		Day:            day,
		Start:          iv.Start,
		End:            iv.End,
		RoomID:         roomID,
		IgnoreLessonID: ignore,
	}).OK
}

// roomFits applies the capacity rule only when both capacities are known.
func roomFits(room Room, class Class) bool {
	if room.Capacity <= 0 || class.Capacity <= 0 {
		return true
	}
	return room.Capacity >= class.Capacity
}
