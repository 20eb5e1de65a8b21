package domain

import (
	"errors"
	"testing"
)

func TestFixedAsset_CheckSellable(t *testing.T) {
	tests := []struct {
		status   AssetStatus
		expected error
	}{
		{status: AssetInUse},
		{status: AssetIdle},
		{status: AssetSold, expected: ErrAssetAlreadySold},
		{status: AssetScrapped, expected: ErrAssetNotSellable},
	}

	for _, tt := range tests {
		t.Run(string(tt.status), func(t *testing.T) {
			asset := &FixedAsset{ID: "a1", Status: tt.status}
			err := asset.CheckSellable()
			if tt.expected == nil && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tt.expected != nil {
				if !errors.Is(err, tt.expected) {
					t.Fatalf("expected %v, got %v", tt.expected, err)
				}
				if KindOf(err) != KindBusiness {
					t.Fatalf("expected BUSINESS_ERROR, got %s", KindOf(err))
				}
			}
		})
	}
}

func TestFixedAsset_CheckMovable(t *testing.T) {
	if err := (&FixedAsset{Status: AssetIdle}).CheckMovable(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (&FixedAsset{Status: AssetSold}).CheckMovable(); !errors.Is(err, ErrAssetNotMovable) {
		t.Fatalf("expected ErrAssetNotMovable, got %v", err)
	}
}

func TestPayableBill_CheckPayable(t *testing.T) {
	if err := (&PayableBill{Status: BillUnpaid}).CheckPayable(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := (&PayableBill{Status: BillPaid}).CheckPayable(); !errors.Is(err, ErrBillAlreadyPaid) {
		t.Fatalf("expected ErrBillAlreadyPaid, got %v", err)
	}
}

func TestRentPeriod_Validate(t *testing.T) {
	if err := (RentPeriod{Year: 2024, Month: 1}).Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, p := range []RentPeriod{{Year: 2024, Month: 0}, {Year: 2024, Month: 13}, {Year: 12, Month: 5}} {
		if err := p.Validate(); !errors.Is(err, ErrInvalidPeriod) {
			t.Errorf("%v: expected ErrInvalidPeriod, got %v", p, err)
		}
	}
	if got := (RentPeriod{Year: 2024, Month: 3}).String(); got != "2024-03" {
		t.Fatalf("unexpected period string %s", got)
	}
}

func TestError_IsMatchesKindAndReason(t *testing.T) {
	err := ErrAssetAlreadySold.Withf("asset x is sold")
	if !errors.Is(err, ErrAssetAlreadySold) {
		t.Fatal("expected re-messaged sentinel to match")
	}
	if errors.Is(err, ErrBillAlreadyPaid) {
		t.Fatal("did not expect match against another reason")
	}

	cause := errors.New("boom")
	wrapped := ErrSequenceContention.Wrap(cause)
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected cause in chain")
	}
	if KindOf(wrapped) != KindInternal {
		t.Fatalf("expected INTERNAL, got %s", KindOf(wrapped))
	}
	if AsError(wrapped).Reason() != "sequence_contention" {
		t.Fatalf("unexpected reason %s", AsError(wrapped).Reason())
	}
	if KindOf(errors.New("plain")) != KindInternal {
		t.Fatal("untyped errors should be INTERNAL")
	}
}
