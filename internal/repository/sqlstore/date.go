package sqlstore

import (
	"fmt"
	"time"

	"alertify/internal/domain"
)

// nullDate scans a nullable date column. sqlite hands back text, postgres a
// time.Time at midnight UTC.
type nullDate struct {
	Date  domain.Date
	Valid bool
}

func (n *nullDate) Scan(src any) error {
	switch v := src.(type) {
	case nil:
		n.Date, n.Valid = domain.Date{}, false
		return nil
	case time.Time:
		n.Date, n.Valid = domain.DateOf(v), true
		return nil
	case []byte:
		return n.scanString(string(v))
	case string:
		return n.scanString(v)
	default:
		return fmt.Errorf("unsupported due_date type %T", src)
	}
}

func (n *nullDate) scanString(s string) error {
	if len(s) > len("2006-01-02") {
		s = s[:len("2006-01-02")]
	}
	d, err := domain.ParseDate(s)
	if err != nil {
		return err
	}
	n.Date, n.Valid = d, true
	return nil
}

func dateValue(d *domain.Date) any {
	if d == nil {
		return nil
	}
	return d.String()
}
