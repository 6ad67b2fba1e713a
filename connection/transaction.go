package connection

import (
	"context"
	"fmt"
)

// BeginTransaction opens a transaction, or — when one is already open on
// this connection — issues a SAVEPOINT and increments the nesting depth
// (spec §4.3/§5: nested scopes use SAVEPOINT SP_<depth>).
func (c *Connection) BeginTransaction(ctx context.Context) error {
	if c.tx == nil {
		tx, err := c.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("connection %q: begin: %w", c.name, err)
		}
		c.tx = tx
		c.depth = 1
		return nil
	}
	if _, err := c.tx.ExecContext(ctx, fmt.Sprintf("SAVEPOINT %s", savepointName(c.depth))); err != nil {
		return fmt.Errorf("connection %q: savepoint: %w", c.name, err)
	}
	c.depth++
	return nil
}

// Commit commits the outermost transaction, or releases the innermost
// savepoint when nested.
func (c *Connection) Commit(ctx context.Context) error {
	if c.tx == nil {
		return fmt.Errorf("connection %q: commit called outside a transaction", c.name)
	}
	if c.depth > 1 {
		c.depth--
		_, err := c.tx.ExecContext(ctx, fmt.Sprintf("RELEASE SAVEPOINT %s", savepointName(c.depth)))
		if err != nil {
			return fmt.Errorf("connection %q: release savepoint: %w", c.name, err)
		}
		return nil
	}
	err := c.tx.Commit()
	c.tx = nil
	c.depth = 0
	if err != nil {
		return fmt.Errorf("connection %q: commit: %w", c.name, err)
	}
	return nil
}

// Rollback rolls back the outermost transaction, or rolls back to the
// innermost savepoint, leaving any enclosing transaction alive.
func (c *Connection) Rollback(ctx context.Context) error {
	if c.tx == nil {
		return fmt.Errorf("connection %q: rollback called outside a transaction", c.name)
	}
	if c.depth > 1 {
		c.depth--
		_, err := c.tx.ExecContext(ctx, fmt.Sprintf("ROLLBACK TO SAVEPOINT %s", savepointName(c.depth)))
		if err != nil {
			return fmt.Errorf("connection %q: rollback to savepoint: %w", c.name, err)
		}
		return nil
	}
	err := c.tx.Rollback()
	c.tx = nil
	c.depth = 0
	if err != nil {
		return fmt.Errorf("connection %q: rollback: %w", c.name, err)
	}
	return nil
}

func savepointName(depth int) string {
	return fmt.Sprintf("SP_%d", depth)
}

// Transaction runs fn inside BeginTransaction/Commit, rolling back on any
// error or panic fn raises, then re-panicking (spec §4.3 transaction()).
func (c *Connection) Transaction(ctx context.Context, fn func(*Connection) error) (err error) {
	if err = c.BeginTransaction(ctx); err != nil {
		return err
	}
	defer func() {
		if p := recover(); p != nil {
			_ = c.Rollback(ctx)
			panic(p)
		}
	}()
	if err = fn(c); err != nil {
		if rbErr := c.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("%w (rollback also failed: %v)", err, rbErr)
		}
		return err
	}
	return c.Commit(ctx)
}
