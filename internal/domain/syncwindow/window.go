// Package syncwindow recorre un intervalo de tiempo en ventanas consecutivas para los
// jobs de sincronización, con guardia de progreso y techo de ventanas.
package syncwindow

import (
	"context"
	"fmt"
	"time"
)

// Micro separación mínima entre el fin de una ventana y el inicio de la siguiente.
const Micro = time.Microsecond

// DefaultMaxWindows techo duro cuando la configuración no define uno.
const DefaultMaxWindows = 10000

// Window intervalo cerrado [Start, End].
type Window struct {
	Start time.Time
	End   time.Time
}

// Summary resultado de un pase de sincronización (una ventana o carga completa).
type Summary struct {
	Count   int      `json:"count"`
	Created int      `json:"created"`
	Updated int      `json:"updated"`
	Errors  []string `json:"errors"`
}

// Add acumula otro resumen.
func (s *Summary) Add(o Summary) {
	s.Count += o.Count
	s.Created += o.Created
	s.Updated += o.Updated
	s.Errors = append(s.Errors, o.Errors...)
}

// Totals agregado del recorrido completo.
type Totals struct {
	Windows  int      `json:"windows"`
	Received int      `json:"received"`
	Created  int      `json:"created"`
	Updated  int      `json:"updated"`
	Errors   int      `json:"errors"`
	Messages []string `json:"messages,omitempty"`
	Stopped  string   `json:"stopped,omitempty"` // motivo de corte anticipado
}

// Options parámetros del recorrido.
type Options struct {
	From       time.Time
	To         time.Time
	ChunkDays  int
	Overlap    time.Duration
	Pause      time.Duration
	MaxWindows int
}

// RunFunc procesa una ventana.
type RunFunc func(ctx context.Context, w Window) (Summary, error)

// Next calcula la ventana que empieza en start: start + chunk - 1µs, acotada a to.
func Next(start, to time.Time, chunkDays int) Window {
	end := start.AddDate(0, 0, chunkDays).Add(-Micro)
	if end.After(to) {
		end = to
	}
	return Window{Start: start, End: end}
}

// NextStart inicio de la ventana siguiente: end + 1µs menos el solapamiento, sin retroceder
// más allá del inicio actual.
func NextStart(cur Window, overlap time.Duration) time.Time {
	next := cur.End.Add(Micro)
	if overlap > 0 {
		if withOverlap := next.Add(-overlap); withOverlap.After(cur.Start) {
			next = withOverlap
		}
	}
	if !next.After(cur.Start) {
		next = cur.End.Add(Micro)
	}
	return next
}

// Loop recorre [From, To] en ventanas. Un error de ventana se agrega a Totals y el
// recorrido sigue; sólo la cancelación del contexto lo interrumpe.
func Loop(ctx context.Context, opts Options, run RunFunc) Totals {
	var t Totals
	if opts.ChunkDays <= 0 {
		opts.ChunkDays = 7
	}
	maxWindows := opts.MaxWindows
	if maxWindows <= 0 {
		maxWindows = DefaultMaxWindows
	}

	start := opts.From
	var prev *Window
	for !start.After(opts.To) {
		if t.Windows >= maxWindows {
			t.Stopped = fmt.Sprintf("limite de %d janelas atingido", maxWindows)
			break
		}
		w := Next(start, opts.To, opts.ChunkDays)
		if prev != nil && w.Start.Equal(prev.Start) && w.End.Equal(prev.End) {
			t.Stopped = "janela não avançou"
			break
		}
		prev = &w

		sum, err := run(ctx, w)
		if err != nil {
			sum.Errors = append(sum.Errors, err.Error())
		}
		t.Windows++
		t.Received += sum.Count
		t.Created += sum.Created
		t.Updated += sum.Updated
		t.Errors += len(sum.Errors)
		t.Messages = append(t.Messages, sum.Errors...)

		if !w.End.Before(opts.To) {
			break
		}
		start = NextStart(w, opts.Overlap)

		if err := ctx.Err(); err != nil {
			t.Stopped = err.Error()
			break
		}
		if opts.Pause > 0 {
			select {
			case <-ctx.Done():
				t.Stopped = ctx.Err().Error()
				return t
			case <-time.After(opts.Pause):
			}
		}
	}
	return t
}

// LastDays intervalo [now - days, now].
func LastDays(now time.Time, days int) (time.Time, time.Time) {
	return now.AddDate(0, 0, -days), now
}

// BackfillRange intervalo de backfill: desde la medianoche de (to - days) hasta to.
func BackfillRange(to time.Time, days int) (time.Time, time.Time) {
	base := to.AddDate(0, 0, -days)
	from := time.Date(base.Year(), base.Month(), base.Day(), 0, 0, 0, 0, to.Location())
	return from, to
}
