package api

import (
	"fmt"
	"net/http"
	"testing"

	"expensetracker/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createExpense(t *testing.T, s *testServer, token, body string) models.Expense {
	t.Helper()
	w := s.do(http.MethodPost, "/expense/", body, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.Expense](t, w)
}

func balance(t *testing.T, s *testServer, token string) models.BalanceView {
	t.Helper()
	w := s.do(http.MethodGet, "/expense/balance", "", token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[models.BalanceView](t, w)
}

func TestExpenseHandler_Create(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 10000, 5000)

	e := createExpense(t, s, token,
		`{"amount":500,"category":"Food","description":"Lunch","type":"expense","payment_method":"cash","date":"2024-01-15T12:00:00"}`)

	assert.NotZero(t, e.ID)
	assert.Equal(t, int64(500), e.Amount)
	assert.Equal(t, "Food", e.Category)
	require.NotNil(t, e.Description)
	assert.Equal(t, "Lunch", *e.Description)
	assert.Equal(t, 2024, e.Date.Year())
	assert.Equal(t, models.BalanceView{BankBalance: 10000, CashBalance: 4500, TotalBalance: 14500}, balance(t, s, token))

	// 收入走银行
	createExpense(t, s, token, `{"amount":2000,"category":"Salary","type":"income","payment_method":"transfer","date":"2024-01-16"}`)
	assert.Equal(t, models.BalanceView{BankBalance: 12000, CashBalance: 4500, TotalBalance: 16500}, balance(t, s, token))
}

func TestExpenseHandler_Create_DefaultsToCash(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 0, 1000)

	e := createExpense(t, s, token, `{"amount":100,"category":"Coffee","type":"expense","date":"2024-01-15"}`)

	assert.Equal(t, "cash", string(e.PaymentMethod))
	assert.Nil(t, e.Description)
	assert.Equal(t, int64(900), balance(t, s, token).CashBalance)
}

func TestExpenseHandler_Create_InsufficientFunds(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 10000, 100)

	w := s.do(http.MethodPost, "/expense/",
		`{"amount":500,"category":"Food","type":"expense","payment_method":"cash","date":"2024-01-15"}`, token)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgInsufficientFunds, decode[Response](t, w).Message)
	assert.Equal(t, models.BalanceView{BankBalance: 10000, CashBalance: 100, TotalBalance: 10100}, balance(t, s, token))

	w = s.do(http.MethodGet, "/expense/", "", token)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestExpenseHandler_Create_Validation(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 10000, 10000)

	cases := map[string]string{
		"zero amount":     `{"amount":0,"category":"Food","type":"expense","date":"2024-01-15"}`,
		"negative amount": `{"amount":-5,"category":"Food","type":"expense","date":"2024-01-15"}`,
		"bad type":        `{"amount":5,"category":"Food","type":"refund","date":"2024-01-15"}`,
		"bad method":      `{"amount":5,"category":"Food","type":"expense","payment_method":"card","date":"2024-01-15"}`,
		"blank category":  `{"amount":5,"category":"   ","type":"expense","date":"2024-01-15"}`,
		"missing date":    `{"amount":5,"category":"Food","type":"expense"}`,
		"bad date":        `{"amount":5,"category":"Food","type":"expense","date":"15/01/2024"}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			w := s.do(http.MethodPost, "/expense/", body, token)
			assert.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
		})
	}
	assert.Equal(t, int64(20000), balance(t, s, token).TotalBalance)
}

func TestExpenseHandler_Create_ForeignBudget(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice", 1000, 1000)
	bob := s.signup(t, "bob", 1000, 1000)

	w := s.do(http.MethodPost, "/budget/", `{"category":"Food","limit":500}`, bob)
	require.Equal(t, http.StatusCreated, w.Code)
	budgetID := decode[models.BudgetView](t, w).ID

	w = s.do(http.MethodPost, "/expense/",
		fmt.Sprintf(`{"amount":5,"category":"Food","type":"expense","budget_id":%d,"date":"2024-01-15"}`, budgetID), alice)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgBudgetNotFound, decode[Response](t, w).Message)
}

func TestExpenseHandler_List_Paging(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 0, 10000)
	for i := 1; i <= 5; i++ {
		createExpense(t, s, token, fmt.Sprintf(`{"amount":%d,"category":"C%d","type":"expense","date":"2024-01-15"}`, i, i))
	}

	w := s.do(http.MethodGet, "/expense/?skip=1&limit=2", "", token)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]models.Expense](t, w)
	require.Len(t, list, 2)
	assert.Equal(t, int64(2), list[0].Amount)
	assert.Equal(t, int64(3), list[1].Amount)

	w = s.do(http.MethodGet, "/expense/", "", token)
	assert.Len(t, decode[[]models.Expense](t, w), 5)

	w = s.do(http.MethodGet, "/expense/?limit=0", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = s.do(http.MethodGet, "/expense/?skip=-1", "", token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpenseHandler_List_OnlyOwn(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice", 0, 1000)
	bob := s.signup(t, "bob", 0, 1000)
	createExpense(t, s, alice, `{"amount":10,"category":"Food","type":"expense","date":"2024-01-15"}`)

	w := s.do(http.MethodGet, "/expense/", "", bob)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestExpenseHandler_Update(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 10000, 5000)
	e := createExpense(t, s, token, `{"amount":500,"category":"Food","type":"expense","payment_method":"cash","date":"2024-01-15"}`)

	w := s.do(http.MethodPatch, fmt.Sprintf("/expense/%d", e.ID), `{"amount":800,"payment_method":"transfer","date":"2024-02-01"}`, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	updated := decode[models.Expense](t, w)
	assert.Equal(t, int64(800), updated.Amount)
	assert.Equal(t, "Food", updated.Category)
	assert.Equal(t, 2, int(updated.Date.Month()))
	assert.Equal(t, models.BalanceView{BankBalance: 9200, CashBalance: 5000, TotalBalance: 14200}, balance(t, s, token))
}

func TestExpenseHandler_Update_InsufficientFundsRollsBack(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 100, 1000)
	e := createExpense(t, s, token, `{"amount":500,"category":"Food","type":"expense","payment_method":"cash","date":"2024-01-15"}`)

	w := s.do(http.MethodPatch, fmt.Sprintf("/expense/%d", e.ID), `{"payment_method":"transfer"}`, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgInsufficientFunds, decode[Response](t, w).Message)
	assert.Equal(t, models.BalanceView{BankBalance: 100, CashBalance: 500, TotalBalance: 600}, balance(t, s, token))

	list := decode[[]models.Expense](t, s.do(http.MethodGet, "/expense/", "", token))
	require.Len(t, list, 1)
	assert.Equal(t, "cash", string(list[0].PaymentMethod))
}

func TestExpenseHandler_Update_NotFound(t *testing.T) {
	s := newTestServer(t)
	alice := s.signup(t, "alice", 0, 1000)
	bob := s.signup(t, "bob", 0, 1000)
	e := createExpense(t, s, alice, `{"amount":10,"category":"Food","type":"expense","date":"2024-01-15"}`)

	w := s.do(http.MethodPatch, fmt.Sprintf("/expense/%d", e.ID), `{"amount":20}`, bob)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, msgExpenseNotFound, decode[Response](t, w).Message)

	w = s.do(http.MethodPatch, "/expense/abc", `{"amount":20}`, alice)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestExpenseHandler_Delete(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 0, 1000)
	e := createExpense(t, s, token, `{"amount":300,"category":"Food","type":"expense","date":"2024-01-15"}`)
	assert.Equal(t, int64(700), balance(t, s, token).CashBalance)

	w := s.do(http.MethodDelete, fmt.Sprintf("/expense/%d", e.ID), "", token)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Equal(t, int64(1000), balance(t, s, token).CashBalance)

	w = s.do(http.MethodDelete, fmt.Sprintf("/expense/%d", e.ID), "", token)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestExpenseHandler_Delete_SpentIncomeConflicts(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 0, 0)
	income := createExpense(t, s, token, `{"amount":1000,"category":"Salary","type":"income","payment_method":"cash","date":"2024-01-01"}`)
	createExpense(t, s, token, `{"amount":1000,"category":"Rent","type":"expense","payment_method":"cash","date":"2024-01-02"}`)

	w := s.do(http.MethodDelete, fmt.Sprintf("/expense/%d", income.ID), "", token)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, msgNegativeBalance, decode[Response](t, w).Message)

	w = s.do(http.MethodPatch, fmt.Sprintf("/expense/%d", income.ID), `{"amount":100}`, token)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, msgNegativeBalance, decode[Response](t, w).Message)

	w = s.do(http.MethodPatch, fmt.Sprintf("/expense/%d", income.ID), `{"payment_method":"transfer"}`, token)
	assert.Equal(t, http.StatusConflict, w.Code)

	assert.Equal(t, models.BalanceView{}, balance(t, s, token))
	list := decode[[]models.Expense](t, s.do(http.MethodGet, "/expense/", "", token))
	assert.Len(t, list, 2)
}

func TestExpenseHandler_Create_IncomeOverflow(t *testing.T) {
	s := newTestServer(t)
	token := s.signup(t, "alice", 0, 0)
	body := `{"amount":9223372036854775807,"category":"Salary","type":"income","payment_method":"transfer","date":"2024-01-01"}`
	createExpense(t, s, token, body)

	w := s.do(http.MethodPost, "/expense/", body, token)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, msgAmountOverflow, decode[Response](t, w).Message)
	assert.Equal(t, int64(9223372036854775807), balance(t, s, token).BankBalance)
}

func TestExpenseHandler_RequiresAuth(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/expense/", "/expense/balance", "/budget/", "/expense/export"} {
		w := s.do(http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "Bearer", w.Header().Get("WWW-Authenticate"))
	}
}
