// Package testutil holds an in-memory implementation of every store the services depend on.
// WithTransaction snapshots the whole store and restores it when the callback fails,
// which makes rollback behaviour observable in tests.
package testutil

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	custom_error "siap/pkg/errors"
	"siap/pkg/metadata"
	"siap/pkg/models"
	"siap/pkg/roles"

	"github.com/doug-martin/goqu/v9"
)

type state struct {
	users     map[int]models.User
	assets    map[int]models.Asset
	movements []models.Movement
	requests  map[int]models.AssetRequest
	items     map[int]models.RequestItem
	approvals map[int]models.Approval
	opnames   map[int]models.StockOpname
	details   map[int]models.StockOpnameDetail
	upkeep    map[int]models.MaintenanceLog
	nextID    int
}

func (s state) clone() state {
	c := state{
		users:     make(map[int]models.User, len(s.users)),
		assets:    make(map[int]models.Asset, len(s.assets)),
		movements: append([]models.Movement(nil), s.movements...),
		requests:  make(map[int]models.AssetRequest, len(s.requests)),
		items:     make(map[int]models.RequestItem, len(s.items)),
		approvals: make(map[int]models.Approval, len(s.approvals)),
		opnames:   make(map[int]models.StockOpname, len(s.opnames)),
		details:   make(map[int]models.StockOpnameDetail, len(s.details)),
		upkeep:    make(map[int]models.MaintenanceLog, len(s.upkeep)),
		nextID:    s.nextID,
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.assets {
		c.assets[k] = v
	}
	for k, v := range s.requests {
		c.requests[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.approvals {
		c.approvals[k] = v
	}
	for k, v := range s.opnames {
		c.opnames[k] = v
	}
	for k, v := range s.details {
		c.details[k] = v
	}
	for k, v := range s.upkeep {
		c.upkeep[k] = v
	}
	return c
}

type MemStore struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	data     state
	failures map[string]error
	clock    time.Time
}

func NewMemStore() *MemStore {
	return &MemStore{
		data: state{
			users:     map[int]models.User{},
			assets:    map[int]models.Asset{},
			requests:  map[int]models.AssetRequest{},
			items:     map[int]models.RequestItem{},
			approvals: map[int]models.Approval{},
			opnames:   map[int]models.StockOpname{},
			details:   map[int]models.StockOpnameDetail{},
			upkeep:    map[int]models.MaintenanceLog{},
		},
		failures: map[string]error{},
		clock:    time.Date(2026, time.January, 5, 9, 0, 0, 0, time.UTC),
	}
}

// FailOn makes the named store method return err until cleared with a nil err.
func (m *MemStore) FailOn(method string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failures, method)
		return
	}
	m.failures[method] = err
}

func (m *MemStore) failure(method string) error {
	return m.failures[method]
}

// tick returns a strictly increasing timestamp so ledger ordering is deterministic.
func (m *MemStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *MemStore) id() int {
	m.data.nextID++
	return m.data.nextID
}

func (m *MemStore) WithTransaction(ctx context.Context, fn func(tx *goqu.TxDatabase) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.data.clone()
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.data = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

// Seeding helpers

func (m *MemStore) AddUser(id int, role roles.Role, active bool) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	user := models.User{ID: id, Username: fmt.Sprintf("user%d", id), Role: role, IsActive: active, TokenVersion: 1}
	m.data.users[id] = user
	if id > m.data.nextID {
		m.data.nextID = id
	}
	return user
}

// AddExternalUser seeds a user that is owned by the HR directory.
func (m *MemStore) AddExternalUser(id int, externalID string, role roles.Role, active bool) models.User {
	user := m.AddUser(id, role, active)
	m.mu.Lock()
	defer m.mu.Unlock()
	user.ExternalID = &externalID
	m.data.users[id] = user
	return user
}

func (m *MemStore) User(id int) models.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.users[id]
}

func (m *MemStore) UserByUsername(username string) (models.User, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.data.users {
		if u.Username == username {
			return u, true
		}
	}
	return models.User{}, false
}

// AddAsset stores an asset as-is, bypassing the ledger. Use it only to seed fixtures.
func (m *MemStore) AddAsset(asset models.Asset) models.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	if asset.ID == 0 {
		asset.ID = m.id()
	}
	m.data.assets[asset.ID] = asset
	return asset
}

func (m *MemStore) Asset(id int) models.Asset {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.assets[id]
}

func (m *MemStore) Movements(assetID int) []models.Movement {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Movement
	for _, mv := range m.data.movements {
		if mv.AssetID == assetID {
			result = append(result, mv)
		}
	}
	return result
}

func (m *MemStore) MovementCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.movements)
}

func (m *MemStore) Request(id int) models.AssetRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.data.requests[id]
}

func (m *MemStore) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.data.requests)
}

func (m *MemStore) Approvals(requestID int) []models.Approval {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.approvalsOf(requestID)
}

func (m *MemStore) approvalsOf(requestID int) []models.Approval {
	var result []models.Approval
	for _, a := range m.data.approvals {
		if a.RequestID == requestID {
			result = append(result, a)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *MemStore) AddPendingApprovals(approverID int, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := 0; i < count; i++ {
		id := m.id()
		m.data.approvals[id] = models.Approval{
			ID:         id,
			RequestID:  -id,
			ApproverID: approverID,
			Sequence:   1,
			Status:     metadata.ApprovalPending,
		}
	}
}

func (m *MemStore) OpnameDetails(opnameID int) []models.StockOpnameDetail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detailsOf(opnameID)
}

func (m *MemStore) detailsOf(opnameID int) []models.StockOpnameDetail {
	var result []models.StockOpnameDetail
	for _, d := range m.data.details {
		if d.OpnameID == opnameID {
			result = append(result, d)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// Users

func (m *MemStore) GetUser(ctx context.Context, userID int) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.data.users[userID]
	if !ok {
		return nil, custom_error.NewNotFound("user", userID)
	}
	return &user, nil
}

func (m *MemStore) GetSessionState(ctx context.Context, userID int) (bool, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.data.users[userID]
	if !ok {
		return false, 0, nil
	}
	return user.IsActive, user.TokenVersion, nil
}

func (m *MemStore) ListExternalUsers(ctx context.Context, tx *goqu.TxDatabase) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.User
	for _, u := range m.data.users {
		if u.ExternalID != nil {
			result = append(result, u)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemStore) InsertExternalUser(ctx context.Context, tx *goqu.TxDatabase, user *models.User) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("InsertExternalUser"); err != nil {
		return 0, err
	}
	for _, u := range m.data.users {
		if u.Username == user.Username {
			return 0, custom_error.WrapDBError(fmt.Sprintf("username %s already exists", user.Username), "23505")
		}
	}
	stored := *user
	stored.ID = m.id()
	stored.TokenVersion = 1
	m.data.users[stored.ID] = stored
	return stored.ID, nil
}

func (m *MemStore) UpdateExternalUser(ctx context.Context, tx *goqu.TxDatabase, user *models.User, revoke bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("UpdateExternalUser"); err != nil {
		return err
	}
	stored, ok := m.data.users[user.ID]
	if !ok {
		return custom_error.NewNotFound("user", user.ID)
	}
	stored.Username = user.Username
	stored.Fullname = user.Fullname
	stored.Email = user.Email
	stored.Role = user.Role
	stored.IsActive = user.IsActive
	if revoke {
		stored.TokenVersion++
	}
	m.data.users[user.ID] = stored
	return nil
}

// Assets

func (m *MemStore) LockAsset(ctx context.Context, tx *goqu.TxDatabase, assetID int) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("LockAsset"); err != nil {
		return nil, err
	}
	asset, ok := m.data.assets[assetID]
	if !ok || asset.DeletedAt != nil {
		return nil, custom_error.NewNotFound("asset", assetID)
	}
	return &asset, nil
}

func (m *MemStore) InsertAsset(ctx context.Context, tx *goqu.TxDatabase, asset *models.Asset) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("InsertAsset"); err != nil {
		return 0, err
	}
	for _, existing := range m.data.assets {
		if existing.Tag == asset.Tag {
			return 0, custom_error.WrapDBError(fmt.Sprintf("failed to insert asset %s", asset.Tag), "23505")
		}
	}
	stored := *asset
	stored.ID = m.id()
	stored.CreatedAt = m.tick()
	stored.UpdatedAt = stored.CreatedAt
	m.data.assets[stored.ID] = stored
	return stored.ID, nil
}

func (m *MemStore) UpdateAssetState(ctx context.Context, tx *goqu.TxDatabase, assetID int, s models.AssetState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("UpdateAssetState"); err != nil {
		return err
	}
	asset, ok := m.data.assets[assetID]
	if !ok {
		return custom_error.NewNotFound("asset", assetID)
	}
	asset.ApplyState(s)
	asset.UpdatedAt = m.tick()
	m.data.assets[assetID] = asset
	return nil
}

func (m *MemStore) UpdateAssetDetails(ctx context.Context, tx *goqu.TxDatabase, asset *models.Asset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.data.assets[asset.ID]
	if !ok {
		return custom_error.NewNotFound("asset", asset.ID)
	}
	updated := *asset
	updated.Status = stored.Status
	updated.HolderID = stored.HolderID
	updated.LocationID = stored.LocationID
	updated.Tag = stored.Tag
	m.data.assets[asset.ID] = updated
	return nil
}

func (m *MemStore) ArchiveAsset(ctx context.Context, tx *goqu.TxDatabase, assetID int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	asset := m.data.assets[assetID]
	asset.DeletedAt = &at
	m.data.assets[assetID] = asset
	return nil
}

func (m *MemStore) FindAssetByTag(ctx context.Context, tx *goqu.TxDatabase, tag string) (*models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, asset := range m.data.assets {
		if asset.Tag == tag && asset.DeletedAt == nil {
			a := asset
			return &a, nil
		}
	}
	return nil, custom_error.NewNotFound("asset", tag)
}

func (m *MemStore) ListAssetsAtLocation(ctx context.Context, tx *goqu.TxDatabase, locationID int, statuses []metadata.AssetStatus) ([]models.Asset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.Asset
	for _, asset := range m.data.assets {
		if asset.DeletedAt != nil || asset.LocationID == nil || *asset.LocationID != locationID {
			continue
		}
		for _, s := range statuses {
			if asset.Status == s {
				result = append(result, asset)
				break
			}
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Ledger

func (m *MemStore) AppendMovement(ctx context.Context, tx *goqu.TxDatabase, movement *models.Movement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("AppendMovement"); err != nil {
		return err
	}
	movement.ID = m.id()
	movement.CreatedAt = m.tick()
	m.data.movements = append(m.data.movements, *movement)
	return nil
}

func (m *MemStore) GetAssetMovements(ctx context.Context, assetID int) ([]models.Movement, error) {
	return m.Movements(assetID), nil
}

// Requests

func (m *MemStore) NextRequestSequence(ctx context.Context, tx *goqu.TxDatabase, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	highest := 0
	for _, r := range m.data.requests {
		number, err := metadata.ParseDocumentNumber(metadata.RequestNumberPrefix, r.RequestNumber)
		if err == nil && number.Year() == year && number.Sequence() > highest {
			highest = number.Sequence()
		}
	}
	return highest + 1, nil
}

func (m *MemStore) InsertRequest(ctx context.Context, tx *goqu.TxDatabase, request *models.AssetRequest) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.data.requests {
		if r.RequestNumber == request.RequestNumber {
			return 0, custom_error.WrapDBError("duplicate request number", "23505")
		}
	}
	stored := *request
	stored.ID = m.id()
	stored.CreatedAt = m.tick()
	stored.UpdatedAt = stored.CreatedAt
	stored.Items = nil
	stored.Approvals = nil
	m.data.requests[stored.ID] = stored
	return stored.ID, nil
}

func (m *MemStore) InsertRequestItems(ctx context.Context, tx *goqu.TxDatabase, requestID int, items []models.RequestItem) ([]models.RequestItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inserted := make([]models.RequestItem, 0, len(items))
	for _, item := range items {
		item.ID = m.id()
		item.RequestID = requestID
		m.data.items[item.ID] = item
		inserted = append(inserted, item)
	}
	return inserted, nil
}

func (m *MemStore) DeleteRequestItem(ctx context.Context, tx *goqu.TxDatabase, requestID int, itemID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.data.items[itemID]
	if !ok || item.RequestID != requestID {
		return custom_error.NewNotFound("request item", itemID)
	}
	delete(m.data.items, itemID)
	return nil
}

func (m *MemStore) LockRequest(ctx context.Context, tx *goqu.TxDatabase, requestID int) (*models.AssetRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.data.requests[requestID]
	if !ok {
		return nil, custom_error.NewNotFound("request", requestID)
	}
	return &request, nil
}

func (m *MemStore) GetRequestItems(ctx context.Context, tx *goqu.TxDatabase, requestID int) ([]models.RequestItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.itemsOf(requestID), nil
}

func (m *MemStore) itemsOf(requestID int) []models.RequestItem {
	var result []models.RequestItem
	for _, item := range m.data.items {
		if item.RequestID == requestID {
			result = append(result, item)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func (m *MemStore) UpdateRequest(ctx context.Context, tx *goqu.TxDatabase, request *models.AssetRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("UpdateRequest"); err != nil {
		return err
	}
	stored, ok := m.data.requests[request.ID]
	if !ok {
		return custom_error.NewNotFound("request", request.ID)
	}
	stored.Status = request.Status
	stored.Justification = request.Justification
	stored.RejectionReason = request.RejectionReason
	stored.SubmittedAt = request.SubmittedAt
	stored.FulfilledBy = request.FulfilledBy
	stored.FulfilledAt = request.FulfilledAt
	stored.FulfillmentNotes = request.FulfillmentNotes
	stored.UpdatedAt = m.tick()
	m.data.requests[request.ID] = stored
	return nil
}

func (m *MemStore) SetItemFulfilledAsset(ctx context.Context, tx *goqu.TxDatabase, itemID int, assetID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.data.items[itemID]
	if !ok {
		return custom_error.NewNotFound("request item", itemID)
	}
	item.FulfilledAssetID = &assetID
	m.data.items[itemID] = item
	return nil
}

func (m *MemStore) DeleteRequest(ctx context.Context, tx *goqu.TxDatabase, requestID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, item := range m.data.items {
		if item.RequestID == requestID {
			delete(m.data.items, id)
		}
	}
	delete(m.data.requests, requestID)
	return nil
}

func (m *MemStore) GetRequest(ctx context.Context, requestID int) (*models.AssetRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	request, ok := m.data.requests[requestID]
	if !ok {
		return nil, custom_error.NewNotFound("request", requestID)
	}
	request.Items = m.itemsOf(requestID)
	request.Approvals = m.approvalsOf(requestID)
	return &request, nil
}

func (m *MemStore) ListRequests(ctx context.Context, filter models.RequestFilter) ([]models.AssetRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.AssetRequest
	for _, r := range m.data.requests {
		if filter.Status != "" && string(r.Status) != filter.Status {
			continue
		}
		if filter.Type != "" && string(r.Type) != filter.Type {
			continue
		}
		if filter.RequesterID != nil && r.RequesterID != *filter.RequesterID {
			continue
		}
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Approvals

func (m *MemStore) InsertApproval(ctx context.Context, tx *goqu.TxDatabase, approval *models.Approval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("InsertApproval"); err != nil {
		return err
	}
	for _, a := range m.data.approvals {
		if a.RequestID == approval.RequestID && a.ApproverID == approval.ApproverID &&
			a.Sequence == approval.Sequence && a.Status == metadata.ApprovalPending {
			return custom_error.WrapDBError("duplicate pending approval", "23505")
		}
	}
	approval.ID = m.id()
	approval.CreatedAt = m.tick()
	m.data.approvals[approval.ID] = *approval
	return nil
}

func (m *MemStore) FindPendingApproval(ctx context.Context, tx *goqu.TxDatabase, requestID int, approverID int) (*models.Approval, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.approvalsOf(requestID) {
		if a.ApproverID == approverID && a.Status == metadata.ApprovalPending {
			found := a
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemStore) UpdateApproval(ctx context.Context, tx *goqu.TxDatabase, approval *models.Approval) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data.approvals[approval.ID]; !ok {
		return custom_error.NewNotFound("approval", approval.ID)
	}
	m.data.approvals[approval.ID] = *approval
	return nil
}

func (m *MemStore) RejectPendingApprovals(ctx context.Context, tx *goqu.TxDatabase, requestID int, decidedBy int, remarks string, at time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for id, a := range m.data.approvals {
		if a.RequestID != requestID || a.Status != metadata.ApprovalPending {
			continue
		}
		r := remarks
		decidedAt := at
		a.Status = metadata.ApprovalRejected
		a.Remarks = &r
		a.DecidedBy = &decidedBy
		a.DecidedAt = &decidedAt
		m.data.approvals[id] = a
		count++
	}
	return count, nil
}

func (m *MemStore) ListPendingApprovalRequests(ctx context.Context, approverID int) ([]models.AssetRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.AssetRequest
	for _, a := range m.data.approvals {
		if a.ApproverID != approverID || a.Status != metadata.ApprovalPending {
			continue
		}
		if r, ok := m.data.requests[a.RequestID]; ok {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

func (m *MemStore) ListApproverCandidates(ctx context.Context, tx *goqu.TxDatabase, eligibleRoles []roles.Role) ([]models.ApproverLoad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.ApproverLoad
	for _, u := range m.data.users {
		if !u.IsActive || !hasRole(eligibleRoles, u.Role) {
			continue
		}
		pending := 0
		for _, a := range m.data.approvals {
			if a.ApproverID == u.ID && a.Status == metadata.ApprovalPending {
				pending++
			}
		}
		result = append(result, models.ApproverLoad{UserID: u.ID, Username: u.Username, Role: string(u.Role), PendingCount: pending})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}

func hasRole(eligible []roles.Role, role roles.Role) bool {
	for _, r := range eligible {
		if r == role {
			return true
		}
	}
	return false
}

// Stock opname

func (m *MemStore) NextOpnameSequence(ctx context.Context, tx *goqu.TxDatabase, year int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	highest := 0
	for _, o := range m.data.opnames {
		if !strings.HasPrefix(o.Number, metadata.OpnameNumberPrefix) {
			continue
		}
		number, err := metadata.ParseDocumentNumber(metadata.OpnameNumberPrefix, o.Number)
		if err == nil && number.Year() == year && number.Sequence() > highest {
			highest = number.Sequence()
		}
	}
	return highest + 1, nil
}

func (m *MemStore) InsertOpname(ctx context.Context, tx *goqu.TxDatabase, opname *models.StockOpname) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *opname
	stored.ID = m.id()
	stored.CreatedAt = m.tick()
	stored.Details = nil
	m.data.opnames[stored.ID] = stored
	return stored.ID, nil
}

func (m *MemStore) InsertOpnameDetails(ctx context.Context, tx *goqu.TxDatabase, details []models.StockOpnameDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.failure("InsertOpnameDetails"); err != nil {
		return err
	}
	for _, d := range details {
		for _, existing := range m.data.details {
			if existing.OpnameID == d.OpnameID && existing.AssetID == d.AssetID {
				return custom_error.WrapDBError("duplicate opname detail", "23505")
			}
		}
		d.ID = m.id()
		m.data.details[d.ID] = d
	}
	return nil
}

func (m *MemStore) LockOpname(ctx context.Context, tx *goqu.TxDatabase, opnameID int) (*models.StockOpname, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	opname, ok := m.data.opnames[opnameID]
	if !ok {
		return nil, custom_error.NewNotFound("stock opname", opnameID)
	}
	return &opname, nil
}

func (m *MemStore) UpdateOpname(ctx context.Context, tx *goqu.TxDatabase, opname *models.StockOpname) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *opname
	stored.Details = nil
	m.data.opnames[opname.ID] = stored
	return nil
}

func (m *MemStore) LockOpnameDetail(ctx context.Context, tx *goqu.TxDatabase, opnameID int, assetID int) (*models.StockOpnameDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.data.details {
		if d.OpnameID == opnameID && d.AssetID == assetID {
			found := d
			return &found, nil
		}
	}
	return nil, nil
}

func (m *MemStore) UpdateOpnameDetail(ctx context.Context, tx *goqu.TxDatabase, detail *models.StockOpnameDetail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data.details[detail.ID] = *detail
	return nil
}

func (m *MemStore) GetOpnameDetails(ctx context.Context, tx *goqu.TxDatabase, opnameID int) ([]models.StockOpnameDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.detailsOf(opnameID), nil
}

func (m *MemStore) GetOpname(ctx context.Context, opnameID int) (*models.StockOpname, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	opname, ok := m.data.opnames[opnameID]
	if !ok {
		return nil, custom_error.NewNotFound("stock opname", opnameID)
	}
	return &opname, nil
}

func (m *MemStore) ListOpnames(ctx context.Context, locationID *int, limit int, offset int) ([]models.StockOpname, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.StockOpname
	for _, o := range m.data.opnames {
		if locationID != nil && o.LocationID != *locationID {
			continue
		}
		result = append(result, o)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID > result[j].ID })
	return result, nil
}

// Maintenance

func (m *MemStore) InsertMaintenance(ctx context.Context, tx *goqu.TxDatabase, record *models.MaintenanceLog) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored := *record
	stored.ID = m.id()
	stored.CreatedAt = m.tick()
	m.data.upkeep[stored.ID] = stored
	return stored.ID, nil
}

func (m *MemStore) ListAssetMaintenance(ctx context.Context, assetID int) ([]models.MaintenanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []models.MaintenanceLog
	for _, r := range m.data.upkeep {
		if r.AssetID == assetID {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].PerformedAt.Equal(result[j].PerformedAt) {
			return result[i].ID > result[j].ID
		}
		return result[i].PerformedAt.After(result[j].PerformedAt)
	})
	return result, nil
}

// ListMaintenanceDue returns, per asset, the latest record when its next due date is before the cutoff.
func (m *MemStore) ListMaintenanceDue(ctx context.Context, before time.Time) ([]models.MaintenanceLog, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	latest := map[int]models.MaintenanceLog{}
	for _, r := range m.data.upkeep {
		current, ok := latest[r.AssetID]
		if !ok || r.PerformedAt.After(current.PerformedAt) || (r.PerformedAt.Equal(current.PerformedAt) && r.ID > current.ID) {
			latest[r.AssetID] = r
		}
	}
	var result []models.MaintenanceLog
	for _, r := range latest {
		if r.NextDueAt != nil && r.NextDueAt.Before(before) {
			result = append(result, r)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].NextDueAt.Before(*result[j].NextDueAt) })
	return result, nil
}
