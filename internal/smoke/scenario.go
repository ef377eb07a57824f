package smoke

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/utafrali/shopsmoke/pkg/httpclient"
)

// Runner executes the smoke scenario against the three services. All phases
// are strictly sequential; the HTTP client retries transport errors, the
// runner itself never does.
type Runner struct {
	cfg      *Config
	users    *UserAPI
	products *ProductAPI
	orders   *OrderAPI
	prober   *Prober
	report   *Report
	logger   *slog.Logger
}

// NewRunner wires a runner from config.
func NewRunner(cfg *Config, logger *slog.Logger) *Runner {
	clientCfg := httpclient.DefaultConfig()
	clientCfg.Timeout = cfg.HTTPTimeout
	client := httpclient.New(clientCfg)

	return &Runner{
		cfg:      cfg,
		users:    NewUserAPI(cfg.UserServiceURL, client),
		products: NewProductAPI(cfg.ProductServiceURL, client),
		orders:   NewOrderAPI(cfg.OrderServiceURL, client),
		prober:   NewProber(client, cfg.ProbeInterval, cfg.ProbeDeadline, logger),
		report:   NewReport(logger),
		logger:   logger,
	}
}

// Run executes the whole scenario and returns the report. Phases 1 and 2 are
// fatal preconditions; every later assertion is recorded and the scenario
// continues.
func (r *Runner) Run(ctx context.Context) *Report {
	// Phase 1: all services healthy.
	err := r.prober.WaitAll(ctx, map[string]string{
		"user":    r.cfg.UserServiceURL,
		"product": r.cfg.ProductServiceURL,
		"order":   r.cfg.OrderServiceURL,
	})
	if err != nil {
		r.report.Fatal(err)
		return r.report
	}

	// Phase 2: fixtures.
	fixtures, err := BuildFixtures(ctx, r.users, r.products, r.logger)
	if err != nil {
		r.report.Fatal(err)
		return r.report
	}

	// Phases 3..8.
	r.phaseReads(ctx, fixtures)
	o1, o2 := r.phaseOrders(ctx, fixtures)
	r.phaseLifecycle(ctx, o1, o2)
	r.phaseNegative(ctx, fixtures, o1, o2)
	r.phaseCancellation(ctx, fixtures)
	r.phaseDeletion(ctx, fixtures)

	return r.report
}

// checkWidgetStock asserts the widget product currently reports the expected
// stock level.
func (r *Runner) checkWidgetStock(ctx context.Context, phase, name string, f *Fixtures, expected int) {
	status, product, err := r.products.Get(ctx, f.ProductWidget.ID)
	if err != nil || product == nil {
		r.report.Assert(phase, name, false, fmt.Sprintf("stock %d", expected), describeFailure(status, err))
		return
	}
	r.report.Equal(phase, name, expected, product.Stock)
}

func describeFailure(status int, err error) string {
	if err != nil {
		return fmt.Sprintf("error: %v", err)
	}
	return fmt.Sprintf("status %d", status)
}

// phaseReads verifies the fixtures read back correctly and accept updates.
func (r *Runner) phaseReads(ctx context.Context, f *Fixtures) {
	const phase = "reads"

	status, alice, err := r.users.Get(ctx, f.UserAlice.ID)
	if err != nil || alice == nil {
		r.report.Assert(phase, "get user alice", false, "status 200", describeFailure(status, err))
	} else {
		r.report.Status(phase, "get user alice", http.StatusOK, status)
		r.report.Equal(phase, "alice username round-trips", "alice", alice.Username)
	}

	status, widget, err := r.products.Get(ctx, f.ProductWidget.ID)
	if err != nil || widget == nil {
		r.report.Assert(phase, "get product widget", false, "status 200", describeFailure(status, err))
	} else {
		r.report.Status(phase, "get product widget", http.StatusOK, status)
		r.report.Equal(phase, "widget price round-trips", WidgetPrice, widget.Price)
		r.report.Equal(phase, "widget initial stock", WidgetStock, widget.Stock)

		// No writes between the two reads, so the representations must match.
		statusAgain, widgetAgain, errAgain := r.products.Get(ctx, f.ProductWidget.ID)
		if errAgain != nil || widgetAgain == nil {
			r.report.Assert(phase, "repeated widget read is identical", false, "status 200", describeFailure(statusAgain, errAgain))
		} else {
			r.report.Equal(phase, "repeated widget read is identical", *widget, *widgetAgain)
		}
	}

	status, bob, err := r.users.Update(ctx, f.UserBob.ID, map[string]any{
		"email": "bob+updated@example.com",
	})
	if err != nil || bob == nil {
		r.report.Assert(phase, "update user bob email", false, "status 200", describeFailure(status, err))
	} else {
		r.report.Status(phase, "update user bob email", http.StatusOK, status)
		r.report.Equal(phase, "bob email updated", "bob+updated@example.com", bob.Email)
	}

	status, gadget, err := r.products.Update(ctx, f.ProductGadget.ID, map[string]any{
		"description": "an updated gadget",
	})
	if err != nil || gadget == nil {
		r.report.Assert(phase, "update product gadget", false, "status 200", describeFailure(status, err))
	} else {
		r.report.Status(phase, "update product gadget", http.StatusOK, status)
		r.report.Equal(phase, "gadget description updated", "an updated gadget", gadget.Description)
	}
}

// phaseOrders places the two main orders and verifies price and stock
// bookkeeping. Returns the two order IDs ("" when creation failed; later
// phases then record their own failures against the missing order).
func (r *Runner) phaseOrders(ctx context.Context, f *Fixtures) (o1ID, o2ID string) {
	const phase = "orders"

	status, o1, err := r.orders.Create(ctx, f.UserAlice.ID, f.ProductWidget.ID, 2)
	if err != nil || o1 == nil {
		r.report.Assert(phase, "create order 1 (alice, 2 widgets)", false, "status 201", describeFailure(status, err))
	} else {
		r.report.Status(phase, "create order 1 (alice, 2 widgets)", http.StatusCreated, status)
		r.report.Equal(phase, "order 1 total price", 2*WidgetPrice, o1.TotalPrice)
		r.report.Equal(phase, "order 1 starts pending", "pending", o1.Status)
		o1ID = o1.ID
	}

	r.checkWidgetStock(ctx, phase, "widget stock reserved for order 1", f, WidgetStock-2)

	status, o2, err := r.orders.Create(ctx, f.UserBob.ID, f.ProductGadget.ID, 3)
	if err != nil || o2 == nil {
		r.report.Assert(phase, "create order 2 (bob, 3 gadgets)", false, "status 201", describeFailure(status, err))
	} else {
		r.report.Status(phase, "create order 2 (bob, 3 gadgets)", http.StatusCreated, status)
		r.report.Equal(phase, "order 2 total price", 3*GadgetPrice, o2.TotalPrice)
		o2ID = o2.ID
	}

	statusCode, gadget, err := r.products.Get(ctx, f.ProductGadget.ID)
	if err != nil || gadget == nil {
		r.report.Assert(phase, "gadget stock reserved for order 2", false, fmt.Sprintf("stock %d", GadgetStock-3), describeFailure(statusCode, err))
	} else {
		r.report.Equal(phase, "gadget stock reserved for order 2", GadgetStock-3, gadget.Stock)
	}

	return o1ID, o2ID
}

// phaseLifecycle walks order 1 to confirmed and order 2 through to shipped.
func (r *Runner) phaseLifecycle(ctx context.Context, o1ID, o2ID string) {
	const phase = "lifecycle"

	status, o1, err := r.orders.Confirm(ctx, o1ID)
	if err != nil || o1 == nil {
		r.report.Assert(phase, "confirm order 1", false, "status 200", describeFailure(status, err))
	} else {
		r.report.Status(phase, "confirm order 1", http.StatusOK, status)
		r.report.Equal(phase, "order 1 confirmed", "confirmed", o1.Status)
	}

	status, _, err = r.orders.UpdateStatus(ctx, o2ID, "confirmed")
	r.report.Assert(phase, "confirm order 2", err == nil && status == http.StatusOK, "status 200", describeFailure(status, err))

	status, o2, err := r.orders.UpdateStatus(ctx, o2ID, "shipped")
	if err != nil || o2 == nil {
		r.report.Assert(phase, "ship order 2", false, "status 200", describeFailure(status, err))
	} else {
		r.report.Status(phase, "ship order 2", http.StatusOK, status)
		r.report.Equal(phase, "order 2 shipped", "shipped", o2.Status)
	}
}

// phaseNegative exercises the rejection paths. Every assertion here expects
// a 4xx; a 2xx means the service failed to reject.
func (r *Runner) phaseNegative(ctx context.Context, f *Fixtures, o1ID, o2ID string) {
	const phase = "negative"

	status, _, err := r.orders.Create(ctx, "00000000-0000-0000-0000-000000000000", f.ProductWidget.ID, 1)
	r.report.Assert(phase, "order for unknown user rejected", err == nil && status == http.StatusNotFound,
		"status 404", describeFailure(status, err))

	status, _, err = r.orders.Create(ctx, f.UserAlice.ID, f.ProductWidget.ID, 1000)
	r.report.Assert(phase, "order beyond stock rejected", err == nil && status == http.StatusBadRequest,
		"status 400", describeFailure(status, err))

	r.checkWidgetStock(ctx, phase, "widget stock unchanged by rejected order", f, WidgetStock-2)

	status, err = r.users.Login(ctx, f.UserAlice.Email, "not-the-password")
	r.report.Assert(phase, "wrong password rejected", err == nil && status == http.StatusUnauthorized,
		"status 401", describeFailure(status, err))

	status, err = r.users.Login(ctx, f.UserAlice.Email, AlicePassword)
	r.report.Assert(phase, "correct password accepted", err == nil && status == http.StatusOK,
		"status 200", describeFailure(status, err))

	status, _, err = r.orders.UpdateStatus(ctx, o2ID, "confirmed")
	r.report.Assert(phase, "transition out of shipped rejected", err == nil && status == http.StatusBadRequest,
		"status 400", describeFailure(status, err))

	status, _, err = r.orders.UpdateStatus(ctx, o1ID, "cancelled")
	r.report.Assert(phase, "cancelling a confirmed order rejected", err == nil && status == http.StatusBadRequest,
		"status 400", describeFailure(status, err))

	status, _, err = r.orders.UpdateStatus(ctx, o1ID, "pending")
	r.report.Assert(phase, "backwards transition rejected", err == nil && status == http.StatusBadRequest,
		"status 400", describeFailure(status, err))
}

// phaseCancellation cancels a fresh pending order and verifies the stock
// comes back.
func (r *Runner) phaseCancellation(ctx context.Context, f *Fixtures) {
	const phase = "cancellation"

	status, o3, err := r.orders.Create(ctx, f.UserAlice.ID, f.ProductWidget.ID, 2)
	if err != nil || o3 == nil {
		r.report.Assert(phase, "create order 3", false, "status 201", describeFailure(status, err))
		return
	}
	r.report.Status(phase, "create order 3", http.StatusCreated, status)

	r.checkWidgetStock(ctx, phase, "widget stock reserved for order 3", f, WidgetStock-4)

	status, cancelled, err := r.orders.UpdateStatus(ctx, o3.ID, "cancelled")
	if err != nil || cancelled == nil {
		r.report.Assert(phase, "cancel order 3", false, "status 200", describeFailure(status, err))
	} else {
		r.report.Status(phase, "cancel order 3", http.StatusOK, status)
		r.report.Equal(phase, "order 3 cancelled", "cancelled", cancelled.Status)
	}

	r.checkWidgetStock(ctx, phase, "widget stock restored by cancellation", f, WidgetStock-2)

	status, _, err = r.orders.UpdateStatus(ctx, o3.ID, "confirmed")
	r.report.Assert(phase, "transition out of cancelled rejected", err == nil && status == http.StatusBadRequest,
		"status 400", describeFailure(status, err))
}

// phaseDeletion deletes a pending order, then the secondary user and
// product, verifying each read-back 404s.
func (r *Runner) phaseDeletion(ctx context.Context, f *Fixtures) {
	const phase = "deletion"

	status, o4, err := r.orders.Create(ctx, f.UserAlice.ID, f.ProductWidget.ID, 1)
	if err != nil || o4 == nil {
		r.report.Assert(phase, "create order 4", false, "status 201", describeFailure(status, err))
		return
	}
	r.report.Status(phase, "create order 4", http.StatusCreated, status)

	r.checkWidgetStock(ctx, phase, "widget stock reserved for order 4", f, WidgetStock-3)

	status, err = r.orders.Delete(ctx, o4.ID)
	r.report.Assert(phase, "delete pending order 4", err == nil && status == http.StatusOK,
		"status 200", describeFailure(status, err))

	r.checkWidgetStock(ctx, phase, "widget stock restored by deletion", f, WidgetStock-2)

	status, _, err = r.orders.Get(ctx, o4.ID)
	r.report.Assert(phase, "deleted order 404s", err == nil && status == http.StatusNotFound,
		"status 404", describeFailure(status, err))

	status, err = r.users.Delete(ctx, f.UserBob.ID)
	r.report.Assert(phase, "delete user bob", err == nil && status == http.StatusOK,
		"status 200", describeFailure(status, err))

	status, _, err = r.users.Get(ctx, f.UserBob.ID)
	r.report.Assert(phase, "deleted user 404s", err == nil && status == http.StatusNotFound,
		"status 404", describeFailure(status, err))

	status, err = r.products.Delete(ctx, f.ProductGadget.ID)
	r.report.Assert(phase, "delete product gadget", err == nil && status == http.StatusOK,
		"status 200", describeFailure(status, err))

	status, _, err = r.products.Get(ctx, f.ProductGadget.ID)
	r.report.Assert(phase, "deleted product 404s", err == nil && status == http.StatusNotFound,
		"status 404", describeFailure(status, err))
}
