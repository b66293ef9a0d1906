// Package course is the in-memory course catalog used by the enrollment steps and services.
package course

import (
	"context"

	"github.com/pkg/errors"
	"github.com/puzpuzpuz/xsync/v3"
)

var (
	ErrCourseNotFound = errors.New("course not found")
	ErrCourseInactive = errors.New("course is not open for enrollment")
	ErrCourseFull     = errors.New("capacity exceeded")
)

type Course struct {
	ID    int64   `json:"id"`
	Title string  `json:"title"`
	Price float64 `json:"price"`
	// Capacity of zero means unlimited seats
	Capacity int  `json:"capacity"`
	Enrolled int  `json:"enrolled"`
	Active   bool `json:"active"`
}

func (c Course) hasSeat() bool {
	return c.Capacity <= 0 || c.Enrolled < c.Capacity
}

type Catalog struct {
	courses *xsync.MapOf[int64, Course]
}

func NewCatalog(courses ...Course) *Catalog {
	c := &Catalog{courses: xsync.NewMapOf[int64, Course]()}
	for _, course := range courses {
		c.Add(course)
	}
	return c
}

// Add inserts or replaces a course
func (c *Catalog) Add(course Course) {
	c.courses.Store(course.ID, course)
}

func (c *Catalog) Get(ctx context.Context, courseID int64) (Course, error) {
	course, ok := c.courses.Load(courseID)
	if !ok {
		return Course{}, errors.Wrapf(ErrCourseNotFound, "course %d", courseID)
	}
	return course, nil
}

// ValidateCourse checks that the course exists and accepts enrollments, it returns the price
func (c *Catalog) ValidateCourse(ctx context.Context, courseID int64) (float64, error) {
	course, err := c.Get(ctx, courseID)
	if err != nil {
		return 0, err
	}

	if !course.Active {
		return 0, errors.Wrapf(ErrCourseInactive, "course %d", courseID)
	}

	return course.Price, nil
}

// EnsureSeat fails with ErrCourseFull when no seat is left. It reserves nothing.
func (c *Catalog) EnsureSeat(ctx context.Context, courseID int64) error {
	course, err := c.Get(ctx, courseID)
	if err != nil {
		return err
	}

	if !course.hasSeat() {
		return errors.Wrapf(ErrCourseFull, "course %d", courseID)
	}

	return nil
}

// IncrementEnrolled takes a seat atomically
func (c *Catalog) IncrementEnrolled(ctx context.Context, courseID int64) error {
	var err error

	c.courses.Compute(courseID, func(course Course, loaded bool) (Course, bool) {
		if !loaded {
			err = errors.Wrapf(ErrCourseNotFound, "course %d", courseID)
			return course, true
		}

		if !course.hasSeat() {
			err = errors.Wrapf(ErrCourseFull, "course %d", courseID)
			return course, false
		}

		course.Enrolled++
		return course, false
	})

	return err
}

// DecrementEnrolled gives a seat back, it never goes below zero
func (c *Catalog) DecrementEnrolled(ctx context.Context, courseID int64) error {
	var err error

	c.courses.Compute(courseID, func(course Course, loaded bool) (Course, bool) {
		if !loaded {
			err = errors.Wrapf(ErrCourseNotFound, "course %d", courseID)
			return course, true
		}

		if course.Enrolled > 0 {
			course.Enrolled--
		}
		return course, false
	})

	return err
}
