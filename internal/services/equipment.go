package services

import (
	"context"
	"errors"
	"io"

	"equipment-manager/internal/dto"
	"equipment-manager/internal/entities"
	"equipment-manager/internal/repositories"
	apperrors "equipment-manager/pkg/errors"

	"go.uber.org/zap"
)

// EquipmentService - фасад для HTTP: на каждый запрос собирается новая сессия.
type EquipmentService struct {
	reconciler *Reconciler
	gateway    *AssetGateway
	metas      repositories.EquipmentMetaRepositoryInterface
	exporter   *ExportService
	logger     *zap.Logger
}

func NewEquipmentService(
	reconciler *Reconciler,
	gateway *AssetGateway,
	metas repositories.EquipmentMetaRepositoryInterface,
	exporter *ExportService,
	logger *zap.Logger,
) *EquipmentService {
	return &EquipmentService{
		reconciler: reconciler,
		gateway:    gateway,
		metas:      metas,
		exporter:   exporter,
		logger:     logger,
	}
}

// ListSummaries возвращает сводки; без хранилища сводок строит их на лету.
func (s *EquipmentService) ListSummaries(ctx context.Context) ([]entities.EquipmentMeta, error) {
	if s.metas != nil {
		list, err := s.metas.FindAll(ctx)
		if err == nil {
			return list, nil
		}
		s.logger.Warn("Хранилище сводок недоступно, сводки строятся из оборудования", zap.Error(err))
	}
	session := NewSession("")
	if _, err := s.reconciler.Hydrate(ctx, session, ""); err != nil {
		return nil, err
	}
	out := make([]entities.EquipmentMeta, 0, len(session.Equipments()))
	for _, eq := range session.Equipments() {
		if eq.SerialNo == "" {
			continue
		}
		out = append(out, *s.reconciler.builder.Build(ctx, eq))
	}
	return out, nil
}

func (s *EquipmentService) load(ctx context.Context, id, user string) (*Session, error) {
	session := NewSession(user)
	if _, err := s.reconciler.Hydrate(ctx, session, id); err != nil {
		return nil, err
	}
	if cur := session.Current(); cur == nil || (id != "" && cur.ID != id && cur.SerialNo != id && cur.ID != DeriveID(id)) {
		return nil, apperrors.ErrNotFound
	}
	return session, nil
}

func (s *EquipmentService) Get(ctx context.Context, id string) (*entities.Equipment, error) {
	session, err := s.load(ctx, id, "")
	if err != nil {
		return nil, err
	}
	return session.Current(), nil
}

// Create добавляет новую запись и сразу сохраняет ее.
func (s *EquipmentService) Create(ctx context.Context, user string, in dto.UpdateEquipmentDTO) (*entities.Equipment, *PersistReport, error) {
	session := NewSession(user)
	if _, err := s.reconciler.Hydrate(ctx, session, ""); err != nil {
		return nil, nil, err
	}
	session.Add()
	if err := s.apply(ctx, session, in); err != nil {
		return nil, nil, err
	}
	return s.save(ctx, session)
}

func (s *EquipmentService) Update(ctx context.Context, id, user string, in dto.UpdateEquipmentDTO) (*entities.Equipment, *PersistReport, error) {
	session, err := s.load(ctx, id, user)
	if err != nil {
		return nil, nil, err
	}
	if err := s.apply(ctx, session, in); err != nil {
		return nil, nil, err
	}
	return s.save(ctx, session)
}

func (s *EquipmentService) save(ctx context.Context, session *Session) (*entities.Equipment, *PersistReport, error) {
	if err := ValidateRequired(session.Current()); err != nil {
		return nil, nil, err
	}
	report, err := s.reconciler.Save(ctx, session)
	if err != nil {
		return nil, report, err
	}
	return session.Current(), report, nil
}

// apply переносит изменения из DTO. Серийный номер применяется первым:
// при конфликте ключа остальные поля не трогаются.
func (s *EquipmentService) apply(ctx context.Context, session *Session, in dto.UpdateEquipmentDTO) error {
	if in.SerialNo != nil {
		if err := s.reconciler.CheckSerial(ctx, session, *in.SerialNo); err != nil {
			return err
		}
		if err := session.SetSerial(*in.SerialNo); err != nil {
			return err
		}
	}
	fields := map[Field]*string{
		FieldModel:           in.Model,
		FieldCodeNo:          in.CodeNo,
		FieldCategory:        in.Category,
		FieldInstallDate:     in.InstallDate,
		FieldCalibrationDate: in.CalibrationDate,
		FieldNote:            in.Note,
		FieldManufacturer:    in.Manufacturer,
	}
	for field, value := range fields {
		if value == nil {
			continue
		}
		if err := session.SetField(field, *value); err != nil {
			return err
		}
	}
	if in.Location != nil {
		if err := session.SetLocation(ParseLocation(*in.Location)); err != nil {
			return err
		}
	}
	if in.Status != nil {
		if err := session.SetStatus(*in.Status); err != nil {
			return err
		}
	}
	if in.Tags != nil {
		if err := session.SetTags(in.Tags); err != nil {
			return err
		}
	}
	if in.Specs != nil {
		if err := session.SetSpecs(in.Specs); err != nil {
			return err
		}
	}
	for _, p := range in.AddPhotos {
		if err := session.AddPhoto(p.URL, p.Desc); err != nil {
			return err
		}
	}
	if in.RepresentativePhoto != nil {
		if err := session.SetRepresentativePhoto(*in.RepresentativePhoto); err != nil {
			return err
		}
	}
	for _, h := range in.AddHistory {
		if _, err := session.AddHistory(entities.HistoryEntry{Date: h.Date, Type: h.Type, Desc: h.Desc}); err != nil {
			return err
		}
	}
	for _, t := range in.Tasks {
		if _, err := session.UpsertTask(t); err != nil {
			return err
		}
	}
	for _, n := range in.AccessoryNotes {
		if err := session.UpdateAccessoryNote(n.RowID, n.Note); err != nil {
			return err
		}
	}
	return nil
}

func (s *EquipmentService) LinkAsset(ctx context.Context, id, user, assetNo string) (*entities.Accessory, error) {
	session, err := s.load(ctx, id, user)
	if err != nil {
		return nil, err
	}
	row, err := s.gateway.Link(ctx, session, assetNo)
	if err != nil {
		return nil, err
	}
	if _, err := s.reconciler.Save(ctx, session); err != nil {
		return row, err
	}
	return row, nil
}

func (s *EquipmentService) UnlinkAsset(ctx context.Context, id, user, rowID string, in dto.UnlinkAssetDTO) error {
	session, err := s.load(ctx, id, user)
	if err != nil {
		return err
	}
	loc := entities.AssetLocation{Region: in.Location.Region, Major: in.Location.Major, Middle: in.Location.Middle, Sub: in.Location.Sub}
	if err := s.gateway.Unlink(ctx, session, rowID, in.AssetNo, loc); err != nil {
		return err
	}
	_, err = s.reconciler.Save(ctx, session)
	return err
}

// AddPhoto добавляет фотографию к записи и сразу сохраняет ее.
func (s *EquipmentService) AddPhoto(ctx context.Context, id, user, url, desc string) (*entities.Equipment, error) {
	session, err := s.load(ctx, id, user)
	if err != nil {
		return nil, err
	}
	if err := session.AddPhoto(url, desc); err != nil {
		return nil, err
	}
	if _, err := s.reconciler.Save(ctx, session); err != nil {
		return nil, err
	}
	return session.Current(), nil
}

func (s *EquipmentService) LinkedAssets(ctx context.Context, id string) ([]entities.Asset, error) {
	eq, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.gateway.LinkedBySerial(ctx, eq.SerialNo)
}

func (s *EquipmentService) Assets(ctx context.Context, force bool) ([]entities.Asset, error) {
	return s.gateway.FetchAll(ctx, force)
}

func (s *EquipmentService) Export(ctx context.Context, w io.Writer) error {
	session := NewSession("")
	if _, err := s.reconciler.Hydrate(ctx, session, ""); err != nil {
		return err
	}
	return s.exporter.WriteXLSX(w, session.Equipments())
}

// IsClientError - ошибки, вызванные входными данными, а не сбоем хранилищ.
func IsClientError(err error) bool {
	var invalid *apperrors.InvalidInputError
	var required *RequiredFieldsError
	return errors.As(err, &invalid) || errors.As(err, &required) ||
		errors.Is(err, apperrors.ErrIdentityConflict) ||
		errors.Is(err, apperrors.ErrInvalidAssetNo) ||
		errors.Is(err, apperrors.ErrAssetAlreadyLinked) ||
		errors.Is(err, apperrors.ErrLinkedRowReadOnly)
}

// EquipmentServiceInterface - то, что нужно HTTP-слою.
type EquipmentServiceInterface interface {
	ListSummaries(ctx context.Context) ([]entities.EquipmentMeta, error)
	Get(ctx context.Context, id string) (*entities.Equipment, error)
	Create(ctx context.Context, user string, in dto.UpdateEquipmentDTO) (*entities.Equipment, *PersistReport, error)
	Update(ctx context.Context, id, user string, in dto.UpdateEquipmentDTO) (*entities.Equipment, *PersistReport, error)
	LinkAsset(ctx context.Context, id, user, assetNo string) (*entities.Accessory, error)
	UnlinkAsset(ctx context.Context, id, user, rowID string, in dto.UnlinkAssetDTO) error
	AddPhoto(ctx context.Context, id, user, url, desc string) (*entities.Equipment, error)
	LinkedAssets(ctx context.Context, id string) ([]entities.Asset, error)
	Assets(ctx context.Context, force bool) ([]entities.Asset, error)
	Export(ctx context.Context, w io.Writer) error
}

var _ EquipmentServiceInterface = (*EquipmentService)(nil)
