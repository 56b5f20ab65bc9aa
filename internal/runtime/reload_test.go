package runtime_test

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/aretw0/ivrflow/internal/runtime"
	"github.com/aretw0/ivrflow/pkg/adapters/memory"
	"github.com/aretw0/ivrflow/pkg/domain"
	"github.com/aretw0/ivrflow/pkg/dsl"
	"github.com/aretw0/ivrflow/pkg/flowstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func versioned(v string) []*domain.FlowDefinition {
	main := dsl.NewFlow("train_main")
	main.State("main_menu").
		Say("Main "+v).
		Option("1", "Book "+v).Go("1", "flow:booking")
	booking := dsl.NewFlow("booking")
	booking.State("ask_train").
		Say("Train "+v).
		Option("*", "Back "+v).Go("*", "flow:train_main")
	return []*domain.FlowDefinition{main.Build(), booking.Build()}
}

func TestTurn_ReloadAtomicity(t *testing.T) {
	source := memory.NewFlowSource(versioned("v0")...)
	store := flowstore.New(source)
	ctx := context.Background()
	require.NoError(t, store.Reload(ctx))
	engine := runtime.NewEngine()

	var wg sync.WaitGroup
	errs := make(chan string, 1000)
	stop := make(chan struct{})

	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess := newCall("train_main", "main_menu")
			for {
				select {
				case <-stop:
					return
				default:
				}
				input := "1"
				if sess.CurrentFlow == "booking" {
					input = "*"
				}
				var res domain.StepResult
				sess, res = engine.Turn(ctx, store.Snapshot(), sess, input)
				if res.Fault != nil {
					errs <- res.Fault.Error()
					return
				}
				v := res.Message[strings.LastIndex(res.Message, " ")+1:]
				if !strings.HasSuffix(res.Options[0].Label, " "+v) {
					errs <- "mixed snapshot: " + res.Message + " / " + res.Options[0].Label
					return
				}
			}
		}()
	}

	for i := 1; i <= 100; i++ {
		source.Replace(versioned("v" + strings.Repeat("i", i%7+1))...)
		require.NoError(t, store.Reload(ctx))
	}
	close(stop)
	wg.Wait()
	close(errs)

	for e := range errs {
		assert.Fail(t, e)
	}
}
