package smoke

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrFixtureCreation is returned when a fixture entity cannot be created.
var ErrFixtureCreation = errors.New("fixture creation failed")

// Fixtures holds the entities the scenario operates on. It is built once by
// BuildFixtures and passed explicitly into the later phases; nothing mutates
// it afterwards.
type Fixtures struct {
	UserAlice User
	UserBob   User

	ProductWidget Product
	ProductGadget Product
}

// Credentials used for the login assertions later in the scenario.
const (
	AlicePassword = "alice-secret"
	BobPassword   = "bob-secret"
)

// Initial stock and prices for the two products; the stock-delta assertions
// in the scenario are all relative to these.
const (
	WidgetPrice = int64(1999)
	WidgetStock = 10
	GadgetPrice = int64(4999)
	GadgetStock = 25
)

// BuildFixtures creates two users and two products, capturing the
// server-generated IDs. Any failure is fatal for the run.
func BuildFixtures(ctx context.Context, users *UserAPI, products *ProductAPI, logger *slog.Logger) (*Fixtures, error) {
	f := &Fixtures{}

	status, alice, err := users.Create(ctx, "alice", "alice@example.com", AlicePassword)
	if err := fixtureErr("user alice", status, alice == nil || alice.ID == "", err); err != nil {
		return nil, err
	}
	f.UserAlice = *alice

	status, bob, err := users.Create(ctx, "bob", "bob@example.com", BobPassword)
	if err := fixtureErr("user bob", status, bob == nil || bob.ID == "", err); err != nil {
		return nil, err
	}
	f.UserBob = *bob

	status, widget, err := products.Create(ctx, "Widget", "a smoke-tested widget", WidgetPrice, WidgetStock)
	if err := fixtureErr("product widget", status, widget == nil || widget.ID == "", err); err != nil {
		return nil, err
	}
	f.ProductWidget = *widget

	status, gadget, err := products.Create(ctx, "Gadget", "a smoke-tested gadget", GadgetPrice, GadgetStock)
	if err := fixtureErr("product gadget", status, gadget == nil || gadget.ID == "", err); err != nil {
		return nil, err
	}
	f.ProductGadget = *gadget

	logger.Info("fixtures created",
		slog.String("user_alice", f.UserAlice.ID),
		slog.String("user_bob", f.UserBob.ID),
		slog.String("product_widget", f.ProductWidget.ID),
		slog.String("product_gadget", f.ProductGadget.ID),
	)

	return f, nil
}

func fixtureErr(name string, status int, missingID bool, err error) error {
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrFixtureCreation, name, err)
	}
	if status != 201 {
		return fmt.Errorf("%w: %s: expected status 201, got %d", ErrFixtureCreation, name, status)
	}
	if missingID {
		return fmt.Errorf("%w: %s: response has no id", ErrFixtureCreation, name)
	}
	return nil
}
