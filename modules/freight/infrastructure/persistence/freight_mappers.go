package persistence

import (
	"encoding/json"

	"github.com/cargoflow/cargoflow/modules/freight/domain/aggregates/customer"
	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/cargo"
	"github.com/cargoflow/cargoflow/modules/freight/domain/entities/importtask"
	"github.com/cargoflow/cargoflow/modules/freight/infrastructure/persistence/models"
)

func toDomainCustomer(row models.Customer) customer.Customer {
	return customer.Hydrate(
		row.ID,
		row.TenantID,
		row.ShippingMark,
		row.Name,
		row.Phone,
		row.CargoCount,
		row.TotalVolume,
		row.CreatedAt,
		row.UpdatedAt,
	)
}

func toDomainCargo(row models.Cargo) cargo.Cargo {
	tracking := ""
	if row.TrackingNumber != nil {
		tracking = *row.TrackingNumber
	}
	return cargo.Hydrate(
		row.ID,
		row.TenantID,
		row.CustomerID,
		tracking,
		row.Description,
		row.Supplier,
		row.Quantity,
		row.Volume,
		row.SourceRow,
		row.CreatedAt,
	)
}

func toDomainImportTask(row models.ImportTask) (importtask.ImportTask, error) {
	var rowErrors []importtask.RowError
	if len(row.Errors) > 0 {
		if err := json.Unmarshal(row.Errors, &rowErrors); err != nil {
			return importtask.ImportTask{}, err
		}
	}
	return importtask.Hydrate(
		row.ID,
		row.TenantID,
		row.OwnerID,
		row.Variant,
		importtask.Status(row.Status),
		row.TotalRows,
		row.CreatedCount,
		row.FailedCount,
		rowErrors,
		row.Message,
		row.CreatedAt,
		row.StartedAt,
		row.FinishedAt,
		row.UpdatedAt,
	), nil
}

func marshalRowErrors(rowErrors []importtask.RowError) ([]byte, error) {
	if rowErrors == nil {
		rowErrors = []importtask.RowError{}
	}
	return json.Marshal(rowErrors)
}
