package bus

import (
	"testing"

	"github.com/ampdesk/ampdesk/pkg/section"
)

func TestBus_DeliversInRegistrationOrder(t *testing.T) {
	b := New()

	var order []int
	Subscribe(b, func(InputChanged) { order = append(order, 1) })
	Subscribe(b, func(InputChanged) { order = append(order, 2) })
	Subscribe(b, func(InputChanged) { order = append(order, 3) })

	b.Publish(InputChanged{Section: section.SectionDCLoad})

	if len(order) != 3 || order[0] != 1 || order[1] != 2 || order[2] != 3 {
		t.Errorf("delivery order = %v, want [1 2 3]", order)
	}
}

func TestBus_TypeIsolation(t *testing.T) {
	b := New()

	var inputs, models int
	Subscribe(b, func(InputChanged) { inputs++ })
	Subscribe(b, func(ModelChanged) { models++ })

	b.Publish(InputChanged{Section: section.SectionProject})
	b.Publish(InputChanged{Section: section.SectionProject})
	b.Publish(ModelChanged{Section: section.SectionProject})

	if inputs != 2 {
		t.Errorf("inputs = %d, want 2", inputs)
	}
	if models != 1 {
		t.Errorf("models = %d, want 1", models)
	}
}

func TestBus_PanicDoesNotStopLaterSubscribers(t *testing.T) {
	b := New()

	var after int
	Subscribe(b, func(Computed) { panic("boom") })
	Subscribe(b, func(Computed) { after++ })

	// Must not panic past the publisher.
	b.Publish(Computed{Section: section.SectionDCLoad, Reason: "test"})

	if after != 1 {
		t.Errorf("subscriber after panicking one ran %d times, want 1", after)
	}

	st := b.Stats()
	if st.Panicked["bus.Computed"] != 1 {
		t.Errorf("panicked counter = %v", st.Panicked)
	}
	if st.Delivered["bus.Computed"] != 1 {
		t.Errorf("delivered counter = %v", st.Delivered)
	}
}

func TestBus_PublishWithoutSubscribersIsNoop(t *testing.T) {
	b := New()
	b.Publish(ProjectLoaded{Path: "x"})
	b.Publish(nil)
}

func TestBus_NilReceiverAndCallback(t *testing.T) {
	var b *Bus
	Subscribe(b, func(InputChanged) {})
	b.Publish(InputChanged{})

	ok := New()
	Subscribe[InputChanged](ok, nil)
	ok.Publish(InputChanged{})
}
