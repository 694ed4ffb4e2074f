package server

import (
	"context"

	"github.com/gofiber/fiber/v2"
)

// listHandler writes the result of load as a JSON array. A nil slice is
// written as [] rather than null.
func listHandler[T any](load func(c *fiber.Ctx) ([]T, error)) fiber.Handler {
	return func(c *fiber.Ctx) error {
		items, err := load(c)
		if err != nil {
			return respondAppError(c, err)
		}
		if items == nil {
			items = []T{}
		}
		return c.JSON(items)
	}
}

// detailHandler loads the resource named by the :id route param and writes
// it once authorize accepts it. A nil authorize makes the resource public.
func detailHandler[T any](
	s *Server,
	load func(ctx context.Context, id uint) (*T, error),
	authorize func(c *fiber.Ctx, item *T) error,
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := s.parseID(c, "id")
		if err != nil {
			return nil
		}

		item, err := load(c.UserContext(), id)
		if err != nil {
			return respondAppError(c, err)
		}
		if authorize != nil {
			if err := authorize(c, item); err != nil {
				return respondAppError(c, err)
			}
		}
		return c.JSON(item)
	}
}

// createHandler binds and tag-validates an In body, runs validate when it is
// set, and answers 201 with whatever create returns.
func createHandler[In, Out any](
	validate func(c *fiber.Ctx, in *In) error,
	create func(c *fiber.Ctx, in *In) (*Out, error),
) fiber.Handler {
	return func(c *fiber.Ctx) error {
		in := new(In)
		if err := bindJSON(c, in); err != nil {
			return nil
		}
		if validate != nil {
			if err := validate(c, in); err != nil {
				return respondAppError(c, err)
			}
		}

		out, err := create(c, in)
		if err != nil {
			return respondAppError(c, err)
		}
		return c.Status(fiber.StatusCreated).JSON(out)
	}
}
