package calendar

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrInvalidDate  = errors.New("invalid date, expected YYYY-MM-DD")
	ErrInvalidClock = errors.New("invalid time of day, expected HH:MM")
)

// DefaultZoneName — зона гражданского календаря по умолчанию (UTC+9).
const DefaultZoneName = "Asia/Seoul"

// LoadZone возвращает локацию по имени IANA.
// Если в системе нет tzdata, для зоны по умолчанию используется фиксированное смещение +09:00.
func LoadZone(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultZoneName
	}
	loc, err := time.LoadLocation(name)
	if err == nil {
		return loc, nil
	}
	if name == DefaultZoneName {
		return time.FixedZone("KST", 9*60*60), nil
	}
	return nil, fmt.Errorf("load zone %q: %w", name, err)
}

// Date — гражданская дата без времени. Сама по себе не привязана к зоне,
// в момент времени превращается только через явную локацию.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

// ParseDate разбирает дату в формате YYYY-MM-DD.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t, time.UTC), nil
}

// DateOf возвращает гражданскую дату момента t в зоне loc.
func DateOf(t time.Time, loc *time.Location) Date {
	y, m, d := t.In(loc).Date()
	return Date{Year: y, Month: m, Day: d}
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, d.Month, d.Day)
}

// StartOf — полночь даты в зоне loc.
func (d Date) StartOf(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At — момент времени "дата + время суток" в зоне loc.
func (d Date) At(c Clock, loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, int(c), 0, 0, loc)
}

// Weekday не зависит от зоны: день недели гражданской даты фиксирован.
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) AddDays(n int) Date {
	return DateOf(time.Date(d.Year, d.Month, d.Day+n, 0, 0, 0, 0, time.UTC), time.UTC)
}

func (d Date) Before(o Date) bool {
	return d.StartOf(time.UTC).Before(o.StartOf(time.UTC))
}

// UTCMidnight используется как значение колонки типа date.
func (d Date) UTCMidnight() time.Time {
	return d.StartOf(time.UTC)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock — время суток в минутах от полуночи.
type Clock int

// MinutesPerDay — верхняя граница Clock (24:00 допустимо только как конец окна).
const MinutesPerDay = 24 * 60

// ParseClock разбирает время суток HH:MM (00:00–23:59).
func ParseClock(s string) (Clock, error) {
	t, err := time.Parse("15:04", s)
	if err != nil || len(s) != 5 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	return Clock(t.Hour()*60 + t.Minute()), nil
}

// ClockOf возвращает время суток момента t в зоне loc (секунды отбрасываются).
func ClockOf(t time.Time, loc *time.Location) Clock {
	lt := t.In(loc)
	return Clock(lt.Hour()*60 + lt.Minute())
}

// ClockFromDuration переводит смещение от полуночи (например, datatypes.Time) в Clock.
func ClockFromDuration(d time.Duration) Clock {
	return Clock(d / time.Minute)
}

func (c Clock) Duration() time.Duration {
	return time.Duration(c) * time.Minute
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}
