package services

import (
	"testing"

	"fintrack/internal/models"
	"fintrack/internal/testutil"
)

func TestCreateAccount(t *testing.T) {
	t.Run("day_to_day_with_opening_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, AccountInput{
			Name:           "Checking",
			Type:           models.AccountTypeDayToDay,
			OpeningBalance: testutil.Dec("120.50"),
		})
		testutil.AssertNoError(t, err)

		if account.ID == "" {
			t.Fatal("expected account ID to be generated")
		}
		reloaded := testutil.ReloadAccount(t, db, account.ID)
		testutil.AssertMoney(t, "balance", reloaded.Balance, "120.50")
		testutil.AssertMoney(t, "opening balance", reloaded.OpeningBalance, "120.50")
		if !reloaded.IsActive {
			t.Error("expected new account to be active")
		}
	})

	t.Run("negative_opening_balance_allowed", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		account, err := svc.CreateAccount(user.ID, AccountInput{
			Name:           "Overdrawn",
			Type:           models.AccountTypeDayToDay,
			OpeningBalance: testutil.Dec("-40"),
		})
		testutil.AssertNoError(t, err)
		testutil.AssertMoney(t, "balance", account.Balance, "-40")
	})

	t.Run("empty_name", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, AccountInput{Name: "  <b></b> ", Type: models.AccountTypeDayToDay})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("unknown_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, AccountInput{Name: "Brokerage", Type: "investment"})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("primary_moves_from_existing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		first, err := svc.CreateAccount(user.ID, AccountInput{Name: "First", Type: models.AccountTypeDayToDay, IsPrimary: true})
		testutil.AssertNoError(t, err)
		second, err := svc.CreateAccount(user.ID, AccountInput{Name: "Second", Type: models.AccountTypeDayToDay, IsPrimary: true})
		testutil.AssertNoError(t, err)

		if testutil.ReloadAccount(t, db, first.ID).IsPrimary {
			t.Error("expected first account to lose primary")
		}
		if !testutil.ReloadAccount(t, db, second.ID).IsPrimary {
			t.Error("expected second account to be primary")
		}
	})

	t.Run("fixed_deposit_cannot_be_primary", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, AccountInput{Name: "Term", Type: models.AccountTypeFixedDeposit, IsPrimary: true})
		testutil.AssertAppError(t, err, "PRIMARY_NOT_ALLOWED")
	})

	t.Run("fixed_deposit_terms", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		rate := testutil.Dec("3.5")

		account, err := svc.CreateAccount(user.ID, AccountInput{
			Name:           "Term",
			Type:           models.AccountTypeFixedDeposit,
			OpeningBalance: testutil.Dec("1000"),
			InterestRate:   &rate,
			DepositDate:    strPtr("2024-01-01"),
			MaturityDate:   strPtr("2024-12-31"),
		})
		testutil.AssertNoError(t, err)
		if account.InterestRate == nil || account.MaturityDate == nil {
			t.Fatal("expected deposit terms to be kept")
		}
	})

	t.Run("maturity_before_deposit", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		_, err := svc.CreateAccount(user.ID, AccountInput{
			Name:         "Term",
			Type:         models.AccountTypeFixedDeposit,
			DepositDate:  strPtr("2024-06-01"),
			MaturityDate: strPtr("2024-01-01"),
		})
		testutil.AssertAppError(t, err, "INVALID_INPUT")
	})

	t.Run("out_of_range_values", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)

		cases := map[string]AccountInput{
			"rate_above_100":      {Name: "Term", Type: models.AccountTypeFixedDeposit, InterestRate: decPtr("100.0001")},
			"rate_too_precise":    {Name: "Term", Type: models.AccountTypeFixedDeposit, InterestRate: decPtr("3.12345")},
			"negative_rate":       {Name: "Term", Type: models.AccountTypeFixedDeposit, InterestRate: decPtr("-1")},
			"balance_too_large":   {Name: "Wallet", Type: models.AccountTypeDayToDay, OpeningBalance: testutil.Dec("1000000000000")},
			"balance_too_precise": {Name: "Wallet", Type: models.AccountTypeDayToDay, OpeningBalance: testutil.Dec("1.00001")},
		}
		for name, in := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := svc.CreateAccount(user.ID, in)
				testutil.AssertAppError(t, err, "INVALID_INPUT")
			})
		}

		rate := testutil.Dec("100")
		_, err := svc.CreateAccount(user.ID, AccountInput{Name: "Max", Type: models.AccountTypeFixedDeposit, InterestRate: &rate})
		testutil.AssertNoError(t, err)
	})

	t.Run("day_to_day_drops_deposit_terms", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		rate := testutil.Dec("2")

		account, err := svc.CreateAccount(user.ID, AccountInput{
			Name:         "Wallet",
			Type:         models.AccountTypeDayToDay,
			InterestRate: &rate,
		})
		testutil.AssertNoError(t, err)
		if testutil.ReloadAccount(t, db, account.ID).InterestRate != nil {
			t.Error("expected interest rate to be cleared for day-to-day account")
		}
	})
}

func TestListAccounts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewAccountService(db)
	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)

	a := testutil.CreateTestAccount(t, db, user.ID)
	b := testutil.CreateTestAccount(t, db, user.ID)
	inactive := testutil.CreateTestAccount(t, db, user.ID)
	testutil.CreateTestAccount(t, db, other.ID)

	_, err := svc.SetPrimary(user.ID, b.ID)
	testutil.AssertNoError(t, err)
	db.Model(inactive).Update("is_active", false)

	t.Run("primary_first_then_creation_order", func(t *testing.T) {
		accounts, err := svc.ListAccounts(user.ID, false)
		testutil.AssertNoError(t, err)
		if len(accounts) != 2 {
			t.Fatalf("expected 2 active accounts, got %d", len(accounts))
		}
		if accounts[0].ID != b.ID || accounts[1].ID != a.ID {
			t.Errorf("unexpected order: %s, %s", accounts[0].Name, accounts[1].Name)
		}
	})

	t.Run("include_inactive", func(t *testing.T) {
		accounts, err := svc.ListAccounts(user.ID, true)
		testutil.AssertNoError(t, err)
		if len(accounts) != 3 {
			t.Errorf("expected 3 accounts, got %d", len(accounts))
		}
	})
}

func TestGetAccountByID(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewAccountService(db)
	owner := testutil.CreateTestUser(t, db)
	stranger := testutil.CreateTestUser(t, db)
	account := testutil.CreateTestAccount(t, db, owner.ID)

	t.Run("owner", func(t *testing.T) {
		got, err := svc.GetAccountByID(owner.ID, account.ID)
		testutil.AssertNoError(t, err)
		if got.ID != account.ID {
			t.Errorf("expected %s, got %s", account.ID, got.ID)
		}
	})

	t.Run("other_user_sees_not_found", func(t *testing.T) {
		_, err := svc.GetAccountByID(stranger.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})

	t.Run("missing", func(t *testing.T) {
		_, err := svc.GetAccountByID(owner.ID, "0192f0c2-5b7a-7c3d-8e9f-0a1b2c3d4e5f")
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestUpdateAccount(t *testing.T) {
	t.Run("rename", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		updated, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{Name: strPtr("Renamed")})
		testutil.AssertNoError(t, err)
		if updated.Name != "Renamed" {
			t.Errorf("expected name Renamed, got %s", updated.Name)
		}
	})

	t.Run("balance_correction_moves_opening_balance", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccountWithBalance(t, db, user.ID, "100")
		testutil.RawTransaction(t, db, user.ID, account.ID, models.TransactionTypeExpense, "30", "Other", "2024-01-05")
		db.Model(account).Update("balance", testutil.Money("70"))

		target := testutil.Dec("90")
		updated, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{Balance: &target})
		testutil.AssertNoError(t, err)

		testutil.AssertMoney(t, "balance", updated.Balance, "90")
		testutil.AssertMoney(t, "opening balance", updated.OpeningBalance, "120")
	})

	t.Run("deactivate_clears_primary", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		_, err := svc.SetPrimary(user.ID, account.ID)
		testutil.AssertNoError(t, err)

		inactive := false
		updated, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{IsActive: &inactive})
		testutil.AssertNoError(t, err)
		if updated.IsActive || updated.IsPrimary {
			t.Errorf("expected inactive non-primary account, got active=%v primary=%v", updated.IsActive, updated.IsPrimary)
		}
	})

	t.Run("set_primary_through_update", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		a := testutil.CreateTestAccount(t, db, user.ID)
		b := testutil.CreateTestAccount(t, db, user.ID)
		_, err := svc.SetPrimary(user.ID, a.ID)
		testutil.AssertNoError(t, err)

		primary := true
		_, err = svc.UpdateAccount(user.ID, b.ID, AccountUpdateFields{IsPrimary: &primary})
		testutil.AssertNoError(t, err)

		if testutil.ReloadAccount(t, db, a.ID).IsPrimary {
			t.Error("expected a to lose primary")
		}
		if !testutil.ReloadAccount(t, db, b.ID).IsPrimary {
			t.Error("expected b to be primary")
		}
	})

	t.Run("convert_to_fixed_deposit_drops_primary", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		_, err := svc.SetPrimary(user.ID, account.ID)
		testutil.AssertNoError(t, err)

		fd := models.AccountTypeFixedDeposit
		updated, err := svc.UpdateAccount(user.ID, account.ID, AccountUpdateFields{Type: &fd})
		testutil.AssertNoError(t, err)
		if updated.IsPrimary {
			t.Error("fixed deposit must not stay primary")
		}
	})

	t.Run("other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		owner := testutil.CreateTestUser(t, db)
		stranger := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, owner.ID)

		_, err := svc.UpdateAccount(stranger.ID, account.ID, AccountUpdateFields{Name: strPtr("Mine now")})
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestDeleteAccount(t *testing.T) {
	t.Run("no_history_hard_deletes", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)

		disabled, err := svc.DeleteAccount(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if disabled {
			t.Error("expected hard delete")
		}

		var count int64
		db.Model(&models.Account{}).Where("id = ?", account.ID).Count(&count)
		if count != 0 {
			t.Error("expected account row to be gone")
		}
	})

	t.Run("history_soft_disables", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		testutil.RawTransaction(t, db, user.ID, account.ID, models.TransactionTypeIncome, "10", "Salary", "2024-01-01")

		disabled, err := svc.DeleteAccount(user.ID, account.ID)
		testutil.AssertNoError(t, err)
		if !disabled {
			t.Error("expected soft disable")
		}
		if testutil.ReloadAccount(t, db, account.ID).IsActive {
			t.Error("expected account to be inactive")
		}
	})

	t.Run("transfer_destination_counts_as_history", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		from := testutil.CreateTestAccount(t, db, user.ID)
		to := testutil.CreateTestAccount(t, db, user.ID)
		tx := testutil.RawTransaction(t, db, user.ID, from.ID, models.TransactionTypeTransfer, "5", models.TransferCategory, "2024-01-01")
		db.Model(tx).Update("to_account_id", to.ID)

		disabled, err := svc.DeleteAccount(user.ID, to.ID)
		testutil.AssertNoError(t, err)
		if !disabled {
			t.Error("expected destination account to be disabled, not deleted")
		}
	})

	t.Run("other_user", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		owner := testutil.CreateTestUser(t, db)
		stranger := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, owner.ID)

		_, err := svc.DeleteAccount(stranger.ID, account.ID)
		testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
	})
}

func TestSetPrimary(t *testing.T) {
	t.Run("inactive_account_rejected", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		user := testutil.CreateTestUser(t, db)
		account := testutil.CreateTestAccount(t, db, user.ID)
		db.Model(account).Update("is_active", false)

		_, err := svc.SetPrimary(user.ID, account.ID)
		testutil.AssertAppError(t, err, "PRIMARY_NOT_ALLOWED")
	})

	t.Run("does_not_touch_other_users", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		svc := NewAccountService(db)
		alice := testutil.CreateTestUser(t, db)
		bob := testutil.CreateTestUser(t, db)
		aliceAcct := testutil.CreateTestAccount(t, db, alice.ID)
		bobAcct := testutil.CreateTestAccount(t, db, bob.ID)

		_, err := svc.SetPrimary(bob.ID, bobAcct.ID)
		testutil.AssertNoError(t, err)
		_, err = svc.SetPrimary(alice.ID, aliceAcct.ID)
		testutil.AssertNoError(t, err)

		if !testutil.ReloadAccount(t, db, bobAcct.ID).IsPrimary {
			t.Error("expected bob's primary to be untouched")
		}
	})
}

func TestApplyTransactionEffect_missing_account(t *testing.T) {
	db := testutil.SetupTestDB(t)
	svc := NewAccountService(db)
	user := testutil.CreateTestUser(t, db)

	tx := &models.Transaction{
		UserID:    user.ID,
		Type:      models.TransactionTypeIncome,
		Amount:    testutil.Money("10"),
		AccountID: "0192f0c2-5b7a-7c3d-8e9f-0a1b2c3d4e5f",
	}
	err := svc.ApplyTransactionEffect(db, tx)
	testutil.AssertAppError(t, err, "ACCOUNT_NOT_FOUND")
}
