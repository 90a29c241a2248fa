package dashboard

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"energisense/internal/models"
)

// API is the slice of the HTTP client a view needs.
type API interface {
	Latest(ctx context.Context) ([]models.Reading, error)
	Users(ctx context.Context) ([]models.Account, error)
}

// Snapshot is one poll's worth of data.
type Snapshot struct {
	Readings []models.Reading
	Users    []models.Account
	At       time.Time
}

// View is the closed set {AdminView, UserView}; the unexported method keeps
// other packages from adding variants.
type View interface {
	Name() string
	Refresh(ctx context.Context, api API) (Snapshot, error)
	isView()
}

// AdminView shows the readings plus the account list.
type AdminView struct{}

// UserView is read-only readings.
type UserView struct{}

func (AdminView) Name() string { return "admin" }
func (UserView) Name() string  { return "user" }

func (AdminView) isView() {}
func (UserView) isView()  {}

func (AdminView) Refresh(ctx context.Context, api API) (Snapshot, error) {
	rs, err := api.Latest(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	users, err := api.Users(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Readings: rs, Users: users, At: time.Now()}, nil
}

func (UserView) Refresh(ctx context.Context, api API) (Snapshot, error) {
	rs, err := api.Latest(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Readings: rs, At: time.Now()}, nil
}

// SelectView picks the view for a session role. Anything but admin is a user.
func SelectView(role models.Role) View {
	if role.IsAdmin() {
		return AdminView{}
	}
	return UserView{}
}

// stats summarises a readings window.
type stats struct {
	n             int
	last          float64
	min, max, avg float64
}

func summarize(rs []models.Reading) stats {
	s := stats{n: len(rs)}
	if s.n == 0 {
		return s
	}
	s.min, s.max = rs[0].Value, rs[0].Value
	var sum float64
	for _, r := range rs {
		sum += r.Value
		if r.Value < s.min {
			s.min = r.Value
		}
		if r.Value > s.max {
			s.max = r.Value
		}
	}
	s.last = rs[len(rs)-1].Value
	s.avg = sum / float64(s.n)
	return s
}

// Render writes a plain-text frame for the snapshot.
func Render(w io.Writer, v View, sess Session, snap Snapshot) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "EnergiSense\t%s (%s)\t%s\n", sess.Email, v.Name(), snap.At.Format(time.TimeOnly))

	st := summarize(snap.Readings)
	if st.n == 0 {
		fmt.Fprintln(tw, "no readings yet")
	} else {
		fmt.Fprintf(tw, "readings\t%d\n", st.n)
		fmt.Fprintf(tw, "last\t%.2f\n", st.last)
		fmt.Fprintf(tw, "min/avg/max\t%.2f / %.2f / %.2f\n", st.min, st.avg, st.max)
	}

	if _, ok := v.(AdminView); ok {
		fmt.Fprintf(tw, "\nusers\t%d\n", len(snap.Users))
		for _, u := range snap.Users {
			fmt.Fprintf(tw, "  %s\t%s\n", u.Email, u.Role)
		}
	}
	return tw.Flush()
}
