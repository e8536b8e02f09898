package engine

import (
	"sync"
	"time"
)

// decayScheduler — одна отложенная задача спада комбо.
//
// Исходная модель планировала новый спад на каждом "пустом" тике, не
// отменяя предыдущие, из-за чего таймеры накапливались и комбо спадало
// быстрее задуманного. Здесь задача одна и дедлайн не сдвигается:
// повторный schedule при уже взведенном таймере — no-op, поэтому отсчет
// идет от первого тика без атаки. Атака снимает задачу через cancel, и
// следующий пустой тик взводит её заново.
type decayScheduler struct {
	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	pending bool

	events chan struct{}
}

func newDecayScheduler() *decayScheduler {
	return &decayScheduler{
		events: make(chan struct{}, 1),
	}
}

// schedule взводит таймер спада, если он еще не ждет.
func (d *decayScheduler) schedule(after time.Duration) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending {
		return
	}
	d.pending = true
	d.gen++
	gen := d.gen

	d.timer = time.AfterFunc(after, func() {
		d.mu.Lock()
		stale := gen != d.gen
		if !stale {
			// Таймер отработал: следующий пустой тик взведет новый,
			// так комбо продолжает спадать шаг за шагом.
			d.pending = false
		}
		d.mu.Unlock()
		if stale {
			return
		}
		// Неблокирующая доставка: владелец боя может быть занят тиком,
		// одного ожидающего события достаточно.
		select {
		case d.events <- struct{}{}:
		default:
		}
	})
}

// cancel гасит ожидающий таймер.
func (d *decayScheduler) cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.gen++
	d.pending = false
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
